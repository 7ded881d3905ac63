package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment session states.
const (
	PaymentSessionCreated  = "created"
	PaymentSessionVerified = "verified"
)

// PaymentSession records a gateway order opened for checkout.
type PaymentSession struct {
	BaseModel
	ProviderOrderID string          `gorm:"size:64;not null;uniqueIndex"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AmountMinor     int64           `gorm:"not null"`
	Currency        string          `gorm:"size:3;not null"`
	Status          string          `gorm:"size:20;not null"`
	PaymentID       string          `gorm:"size:64"`
	VerifiedAt      *time.Time
}
