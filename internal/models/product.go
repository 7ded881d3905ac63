package models

import (
	"github.com/shopspring/decimal"
)

// Product stock statuses.
const (
	ProductStatusActive     = "Active"
	ProductStatusLowStock   = "Low Stock"
	ProductStatusOutOfStock = "Out of Stock"
)

// lowStockThreshold is the stock level below which a product is flagged.
const lowStockThreshold = 20

// Product is a catalog entry.
type Product struct {
	BaseModel
	Name          string              `gorm:"not null"`
	Description   string              `gorm:"type:text"`
	Category      string              `gorm:"index"`
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	OriginalPrice decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Stock         int                 `gorm:"not null;default:0"`
	Status        string              `gorm:"size:20;not null"`
	ImageURL      string
	Colors        []string `gorm:"type:jsonb;serializer:json"`
	Sizes         []string `gorm:"type:jsonb;serializer:json"`
	IsFeatured    bool     `gorm:"not null;default:false"`
}

// StockStatus derives the display status for a stock level.
func StockStatus(stock int) string {
	switch {
	case stock <= 0:
		return ProductStatusOutOfStock
	case stock < lowStockThreshold:
		return ProductStatusLowStock
	default:
		return ProductStatusActive
	}
}

// RefreshStatus recomputes Status from Stock.
func (p *Product) RefreshStatus() {
	p.Status = StockStatus(p.Stock)
}
