// internal/models/rating.go
package models

import (
	"github.com/google/uuid"
)

// RatingEntry holds a rater's current value for a beat.
type RatingEntry struct {
	BaseModel
	RaterID uuid.UUID `json:"rater_id" gorm:"type:uuid;not null;uniqueIndex:idx_rating_entries_rater_beat"`
	BeatID  uuid.UUID `json:"beat_id" gorm:"type:uuid;not null;uniqueIndex:idx_rating_entries_rater_beat;index"`
	Value   int       `json:"value" gorm:"not null"`
}
