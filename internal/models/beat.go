// internal/models/beat.go
package models

import (
	"github.com/google/uuid"
)

type Beat struct {
	BaseModel
	ProducerID        uuid.UUID  `json:"producer_id" gorm:"type:uuid;not null;index"`
	Title             string     `json:"title" gorm:"size:255;not null"`
	Genre             string     `json:"genre" gorm:"size:50;index"`
	Mood              string     `json:"mood" gorm:"size:50;index"`
	BPM               int        `json:"bpm" gorm:"index"`
	Key               string     `json:"key" gorm:"column:musical_key;size:20"`
	Tags              []string   `json:"tags" gorm:"type:text;serializer:json"`
	CoverArtURL       string     `json:"cover_art_url" gorm:"size:500"`
	AudioURL          string     `json:"audio_url" gorm:"size:500"`
	NonExclusivePrice float64    `json:"non_exclusive_price" gorm:"type:decimal(12,2);not null;default:0"`
	ExclusivePrice    float64    `json:"exclusive_price" gorm:"type:decimal(12,2);not null;default:0"`
	IsFree            bool       `json:"is_free" gorm:"default:false"`
	Rating            float64    `json:"rating" gorm:"not null;default:0"`
	RatingsCount      int64      `json:"ratings_count" gorm:"not null;default:0"`
	Status            BeatStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	Version           int64      `json:"version" gorm:"not null;default:1"`

	// Relationships
	Producer     User          `json:"producer,omitempty" gorm:"foreignKey:ProducerID"`
	Contributors []Contributor `json:"contributors" gorm:"foreignKey:BeatID"`
}

// PriceFor returns the canonical price charged for a license, honouring free beats.
func (b *Beat) PriceFor(license LicenseType) float64 {
	if b.IsFree {
		return 0
	}
	if license == LicenseTypeExclusive {
		return b.ExclusivePrice
	}
	return b.NonExclusivePrice
}

func (b *Beat) Available() bool {
	return b.Status == BeatStatusActive
}

// Contributor is a collaborator other than the primary producer holding a revenue split.
type Contributor struct {
	BaseModel
	BeatID        uuid.UUID `json:"beat_id" gorm:"type:uuid;not null;uniqueIndex:idx_contributors_beat_user"`
	ContributorID uuid.UUID `json:"contributor_id" gorm:"type:uuid;not null;uniqueIndex:idx_contributors_beat_user;index"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	Role          string    `json:"role" gorm:"size:50"`
	SplitPercent  float64   `json:"split_percent" gorm:"not null"`
}

type Favorite struct {
	BaseModel
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_beat"`
	BeatID uuid.UUID `json:"beat_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_beat"`

	Beat Beat `json:"beat,omitempty" gorm:"foreignKey:BeatID"`
}
