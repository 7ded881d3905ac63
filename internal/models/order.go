package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// DefaultPaymentMethod is used when checkout does not name one.
const DefaultPaymentMethod = "COD"

// Order is a placed checkout. Customer fields and items are snapshots taken
// at creation and do not follow later edits to users or products.
type Order struct {
	BaseModel
	CustomerID      *uuid.UUID `gorm:"type:uuid;index"`
	Customer        *User      `gorm:"constraint:OnDelete:SET NULL"`
	CustomerName    string
	CustomerEmail   string `gorm:"index"`
	CustomerPhone   string
	Items           []OrderItem     `gorm:"type:jsonb;serializer:json;not null"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ShippingAddress string          `gorm:"type:text"`
	PaymentMethod   string          `gorm:"size:30;not null"`
	PaymentID       string
	CouponID        *uuid.UUID  `gorm:"type:uuid"`
	Status          OrderStatus `gorm:"size:20;not null;index"`
	CompletedAt     *time.Time
}

// OrderItem is one line of the cart as submitted.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}
