package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon reduces the order total.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a promotional code. Code is stored upper-cased.
type Coupon struct {
	BaseModel
	Code           string          `gorm:"size:50;not null;uniqueIndex"`
	DiscountType   DiscountType    `gorm:"size:20;not null"`
	DiscountValue  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MinOrderAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	MaxUses        *int
	UsedCount      int `gorm:"not null;default:0"`
	ExpiresAt      *time.Time
	IsActive       bool `gorm:"not null"`
}
