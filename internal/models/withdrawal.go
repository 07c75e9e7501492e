// internal/models/withdrawal.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalRequest struct {
	BaseModel
	ProducerID    uuid.UUID        `json:"producer_id" gorm:"type:uuid;not null;index"`
	Amount        float64          `json:"amount" gorm:"not null"`
	Method        WithdrawalMethod `json:"method" gorm:"type:varchar(20);not null"`
	Destination   string           `json:"destination" gorm:"size:255;not null"`
	Status        WithdrawalStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	RequestedAt   time.Time        `json:"requested_at" gorm:"not null"`
	ProcessedAt   *time.Time       `json:"processed_at"`
	FailureReason string           `json:"failure_reason,omitempty" gorm:"type:text"`
}
