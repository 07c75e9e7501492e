// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "CACSdistro", cfg.Marketplace.Name)
	assert.Equal(t, "United States", cfg.Currency.DefaultCountry)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Frontend.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/beats.db")
	t.Setenv("MINIMUM_PAYOUT", "25.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MARKETPLACE_NAME", "Beatstore")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 25.5, cfg.Payment.MinimumPayout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Frontend.AllowedOrigins)
	assert.Equal(t, "Beatstore", cfg.Marketplace.Name)
	assert.Equal(t, "/tmp/beats.db", cfg.Database.DSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Environment: "development", Database: DatabaseConfig{Driver: "postgres"}}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Payment.MinimumPayout = -1
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Environment = "production"
	cfg.JWT.SecretKey = "your-secret-key-change-in-production"
	cfg.Database.Password = "secret"
	assert.Error(t, cfg.Validate())

	cfg.JWT.SecretKey = "rotated"
	cfg.Database.Password = ""
	assert.Error(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "app", Password: "pw", Database: "beats", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=beats sslmode=disable", d.DSN())
}
