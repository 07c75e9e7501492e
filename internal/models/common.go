// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the id on the client so postgres and sqlite behave the same.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB stores free-form JSON (jsonb on postgres, text on sqlite)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// Enums
type UserRole string

const (
	UserRoleProducer UserRole = "producer"
	UserRoleArtist   UserRole = "artist"
	UserRoleAdmin    UserRole = "admin"
)

type LicenseType string

const (
	LicenseTypeNonExclusive LicenseType = "non_exclusive"
	LicenseTypeExclusive    LicenseType = "exclusive"
)

// Label is the human readable name used in contract text.
func (l LicenseType) Label() string {
	if l == LicenseTypeExclusive {
		return "Exclusive"
	}
	return "Non-Exclusive"
}

func (l LicenseType) Valid() bool {
	return l == LicenseTypeNonExclusive || l == LicenseTypeExclusive
}

type BeatStatus string

const (
	BeatStatusActive   BeatStatus = "active"
	BeatStatusDelisted BeatStatus = "delisted"
	BeatStatusArchived BeatStatus = "archived"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

type WithdrawalMethod string

const (
	WithdrawalMethodPayPal       WithdrawalMethod = "paypal"
	WithdrawalMethodBankTransfer WithdrawalMethod = "bank_transfer"
)

type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodBitcoin  PaymentMethod = "bitcoin"
	PaymentMethodFree     PaymentMethod = "free"
)
