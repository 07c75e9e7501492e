// internal/models/contract.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract is written once per successful purchase and never updated. The
// display currency and marketplace are frozen at signing so the body can be
// regenerated later.
type Contract struct {
	BaseModel
	Marketplace      string        `json:"marketplace" gorm:"size:100;not null"`
	BeatID           uuid.UUID     `json:"beat_id" gorm:"type:uuid;not null;index"`
	BeatTitle        string        `json:"beat_title" gorm:"size:255;not null"`
	BuyerID          uuid.UUID     `json:"buyer_id" gorm:"type:uuid;not null;index"`
	BuyerName        string        `json:"buyer_name" gorm:"size:100;not null"`
	SellerID         uuid.UUID     `json:"seller_id" gorm:"type:uuid;not null;index"`
	SellerName       string        `json:"seller_name" gorm:"size:100;not null"`
	LicenseType      LicenseType   `json:"license_type" gorm:"type:varchar(20);not null"`
	PriceAtPurchase  float64       `json:"price_at_purchase" gorm:"type:decimal(12,2);not null"`
	CurrencyCode     string        `json:"currency_code" gorm:"size:3;not null"`
	CurrencySymbol   string        `json:"currency_symbol" gorm:"size:8;not null"`
	CurrencyRate     float64       `json:"currency_rate" gorm:"not null"`
	ZeroDecimal      bool          `json:"-" gorm:"not null;default:false"`
	SignedAt         time.Time     `json:"signed_at" gorm:"not null"`
	SignatureText    string        `json:"signature_text" gorm:"size:255;not null"`
	Body             string        `json:"body" gorm:"type:text;not null"`
	Digest           string        `json:"digest" gorm:"size:64;not null"`
	PaymentMethod    PaymentMethod `json:"payment_method" gorm:"type:varchar(20)"`
	PaymentReference string        `json:"payment_reference,omitempty" gorm:"size:255"`
}

// Ownership records that a buyer holds a license on a beat. One row per (buyer, beat).
type Ownership struct {
	BaseModel
	BuyerID                uuid.UUID   `json:"buyer_id" gorm:"type:uuid;not null;uniqueIndex:idx_ownerships_buyer_beat"`
	BeatID                 uuid.UUID   `json:"beat_id" gorm:"type:uuid;not null;uniqueIndex:idx_ownerships_buyer_beat;index"`
	LicenseType            LicenseType `json:"license_type" gorm:"type:varchar(20);not null"`
	ContractID             uuid.UUID   `json:"contract_id" gorm:"type:uuid;not null"`
	PublishingSharePercent float64     `json:"publishing_share_percent" gorm:"not null;default:0"`

	Beat Beat `json:"beat,omitempty" gorm:"foreignKey:BeatID"`
}
