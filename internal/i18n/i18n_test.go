// internal/i18n/i18n_test.go
package i18n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogue(t *testing.T) *I18n {
	t.Helper()
	i := &I18n{translations: make(map[string]map[string]string), defaultLang: "en"}
	require.NoError(t, i.LoadTranslations(embeddedLocales, "locales"))
	return i
}

func TestEmbeddedCataloguesShareKeys(t *testing.T) {
	i := newCatalogue(t)
	require.Contains(t, i.translations, "en")
	require.Contains(t, i.translations, "zh_TW")

	for key := range i.translations["en"] {
		assert.Contains(t, i.translations["zh_TW"], key)
	}
	for key := range i.translations["zh_TW"] {
		assert.Contains(t, i.translations["en"], key)
	}
}

func TestTranslateWithFallback(t *testing.T) {
	i := newCatalogue(t)

	assert.Equal(t, "Invalid amount", i.T("en", KeyValidationInvalid, "amount"))
	assert.Equal(t, "此伴奏已無法購買", i.T("zh_TW", KeyBeatNotAvailable))
	assert.Equal(t, i.T("en", KeyRateLimited), i.T("fr", KeyRateLimited))
	assert.Equal(t, "no.such.key", i.T("en", "no.such.key"))
}

func TestLoadDirectoryOverrides(t *testing.T) {
	i := newCatalogue(t)

	dir := t.TempDir()
	payload, err := json.Marshal(map[string]string{KeyRateLimited: "Slow down"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), payload, 0o644))

	require.NoError(t, i.LoadDirectory(dir))
	assert.Equal(t, "Slow down", i.T("en", KeyRateLimited))
	assert.Equal(t, "Invalid amount", i.T("en", KeyValidationInvalid, "amount"))

	assert.NoError(t, i.LoadDirectory(filepath.Join(dir, "missing")))
}

func TestLoadTranslationsRejectsBadJSON(t *testing.T) {
	i := &I18n{translations: make(map[string]map[string]string), defaultLang: "en"}
	fsys := fstest.MapFS{"locales/en.json": {Data: []byte("{not json")}}
	assert.Error(t, i.LoadTranslations(fsys, "locales"))
}
