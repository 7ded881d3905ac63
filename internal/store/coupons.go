package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
)

// ErrCouponExhausted is returned when a coupon can no longer be consumed.
var ErrCouponExhausted = apperr.Conflict("Coupon usage limit reached")

// CouponRepository persists coupons.
type CouponRepository struct {
	base
}

// GetActiveByCode looks a coupon up by its upper-cased code among active ones.
func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var coupon models.Coupon
	if err := db.First(&coupon, "code = ? AND is_active = ?", strings.ToUpper(code), true).Error; err != nil {
		return nil, translate(err, "coupon")
	}
	return &coupon, nil
}

func (r *CouponRepository) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var coupon models.Coupon
	if err := db.First(&coupon, "id = ?", id).Error; err != nil {
		return nil, translate(err, "coupon")
	}
	return &coupon, nil
}

func (r *CouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var coupons []models.Coupon
	if err := db.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, translate(err, "coupon")
	}
	return coupons, nil
}

func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	coupon.Code = strings.ToUpper(coupon.Code)
	return translate(db.Create(coupon).Error, "coupon")
}

// couponEditable lists the columns an admin edit writes. used_count only
// moves through useCoupon.
var couponEditable = []string{
	"code", "discount_type", "discount_value", "min_order_amount",
	"max_uses", "expires_at", "is_active", "updated_at",
}

// Update writes the editable columns of coupon and reloads it, so the
// returned usage counter is the stored one.
func (r *CouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	coupon.Code = strings.ToUpper(coupon.Code)
	res := db.Model(coupon).Select(couponEditable).Updates(coupon)
	if res.Error != nil {
		return translate(res.Error, "coupon")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "coupon")
	}
	return translate(db.First(coupon, "id = ?", coupon.ID).Error, "coupon")
}

func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "coupon")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "coupon")
	}
	return nil
}

// Use increments the coupon's used count by exactly one.
func (r *CouponRepository) Use(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(useCoupon(db, id), "coupon")
}

// useCoupon is a conditional increment. When no row matches it reports
// whether the coupon is unknown or exhausted.
func useCoupon(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND (max_uses IS NULL OR used_count < max_uses)", id, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var active int64
	if err := tx.Model(&models.Coupon{}).Where("id = ? AND is_active = ?", id, true).Count(&active).Error; err != nil {
		return err
	}
	if active == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrCouponExhausted
}
