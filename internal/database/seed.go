// internal/database/seed.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/beatmarket/internal/models"
)

// SeedDevelopmentData creates a small demo catalog when the users table is empty.
func SeedDevelopmentData(db *gorm.DB) error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	logrus.Info("Seeding development data...")

	return db.Transaction(func(tx *gorm.DB) error {
		producer := &models.User{Name: "Nightshift Audio", Email: "producer@beatmarket.dev", Role: models.UserRoleProducer, Country: "United States"}
		engineer := &models.User{Name: "Lena Cross", Email: "engineer@beatmarket.dev", Role: models.UserRoleProducer, Country: "United Kingdom"}
		artist := &models.User{Name: "Kai Rivers", Email: "artist@beatmarket.dev", Role: models.UserRoleArtist, Country: "Canada"}
		admin := &models.User{Name: "Platform Admin", Email: "admin@beatmarket.dev", Role: models.UserRoleAdmin, Country: "United States"}

		for _, u := range []*models.User{producer, engineer, artist, admin} {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", u.Email, err)
			}
		}

		beats := []models.Beat{
			{Title: "Sunset Drive", Genre: "Trap", Mood: "Energetic", BPM: 145, Key: "C#m", Tags: []string{"synth", "808"}, NonExclusivePrice: 29.99, ExclusivePrice: 299.99,
				Contributors: []models.Contributor{{ContributorID: engineer.ID, Name: engineer.Name, Role: "Mix Engineer", SplitPercent: 25}}},
			{Title: "Midnight City", Genre: "Hip-Hop", Mood: "Dark", BPM: 130, Key: "Gm", Tags: []string{"piano", "heavy bass"}, NonExclusivePrice: 39.99, ExclusivePrice: 349.99},
			{Title: "Ocean Waves", Genre: "R&B", Mood: "Chill", BPM: 90, Key: "Am", Tags: []string{"guitar", "smooth"}, NonExclusivePrice: 29.99, ExclusivePrice: 249.99},
			{Title: "Rainy Days", Genre: "Lo-Fi", Mood: "Sad", BPM: 85, Key: "Dm", Tags: []string{"vinyl", "sad piano"}, IsFree: true},
			{Title: "Summer Vibe", Genre: "Afrobeat", Mood: "Happy", BPM: 105, Key: "Amaj", Tags: []string{"dancehall", "sunny"}, NonExclusivePrice: 29.99, ExclusivePrice: 279.99},
		}

		for i := range beats {
			beats[i].ProducerID = producer.ID
			beats[i].Status = models.BeatStatusActive
			beats[i].Version = 1
			if err := tx.Omit("Producer").Create(&beats[i]).Error; err != nil {
				return fmt.Errorf("failed to create beat %s: %w", beats[i].Title, err)
			}
		}

		logrus.WithFields(logrus.Fields{
			"users": 4,
			"beats": len(beats),
		}).Info("Development data seeded")
		return nil
	})
}
