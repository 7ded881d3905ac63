package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/vurel/internal/models"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status models.OrderStatus
	Limit  int
	Offset int
}

// OrderRepository persists orders.
type OrderRepository struct {
	base
}

// Create writes the order in one transaction together with the optional new
// guest account and the coupon consumption. If the coupon can no longer be
// used nothing is written.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, newCustomer *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if newCustomer != nil {
			newCustomer.Email = strings.ToLower(newCustomer.Email)
			if err := tx.Create(newCustomer).Error; err != nil {
				return translate(err, "user")
			}
			order.CustomerID = &newCustomer.ID
		}
		if order.CouponID != nil {
			if err := useCoupon(tx, *order.CouponID); err != nil {
				return translate(err, "coupon")
			}
		}
		return tx.Omit("Customer").Create(order).Error
	})
	return translate(err, "order")
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var order models.Order
	if err := db.First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var orders []models.Order
	if err := db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, translate(err, "order")
	}
	return orders, nil
}

// List returns a page of orders, newest first, and the unpaged total.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db.Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "order")
	}

	var orders []models.Order
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, translate(err, "order")
	}
	return orders, total, nil
}

// UpdateStatus persists the status and completion timestamp of order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *models.Order) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(order).Select("status", "completed_at", "updated_at").Updates(order)
	if res.Error != nil {
		return translate(res.Error, "order")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "order")
	}
	return nil
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&models.Order{}).Count(&n).Error
	return n, translate(err, "order")
}

// Revenue sums totals across orders that were not cancelled.
func (r *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var sum decimal.Decimal
	err := db.Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum).Error
	return sum, translate(err, "order")
}
