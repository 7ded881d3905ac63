package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
)

// CouponRejection names the check a coupon failed.
type CouponRejection string

const (
	CouponNotFound      CouponRejection = "not_found"
	CouponExpired       CouponRejection = "expired"
	CouponExhaustedUses CouponRejection = "exhausted_uses"
	CouponBelowMinimum  CouponRejection = "below_minimum"
)

// CouponError reports why a code cannot be applied to an order total.
type CouponError struct {
	Reason  CouponRejection
	Message string
}

func (e *CouponError) Error() string { return e.Message }

// Unwrap exposes the rejection as a validation failure.
func (e *CouponError) Unwrap() error { return apperr.Validation(e.Message) }

// CouponQuote is a successful validation: the coupon and the discount it
// grants on the quoted total.
type CouponQuote struct {
	Coupon   *models.Coupon
	Discount decimal.Decimal
}

// CouponInput holds the editable coupon fields.
type CouponInput struct {
	Code           string
	DiscountType   models.DiscountType
	DiscountValue  decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxUses        *int
	ExpiresAt      *time.Time
	IsActive       *bool
}

// CouponService validates and manages promotional codes.
type CouponService struct {
	coupons CouponStore
	now     func() time.Time
}

// NewCouponService constructs CouponService.
func NewCouponService(coupons CouponStore) *CouponService {
	return &CouponService{coupons: coupons, now: time.Now}
}

// Validate checks code against orderTotal. The checks run in order and the
// first failure wins: unknown or inactive, expired, usage cap reached, below
// the minimum order amount. Validation has no side effects.
func (s *CouponService) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*CouponQuote, error) {
	coupon, err := s.coupons.GetActiveByCode(ctx, strings.TrimSpace(code))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, &CouponError{Reason: CouponNotFound, Message: "Invalid coupon code"}
	}
	if err != nil {
		return nil, err
	}

	if coupon.ExpiresAt != nil && s.now().After(*coupon.ExpiresAt) {
		return nil, &CouponError{Reason: CouponExpired, Message: "Coupon has expired"}
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, &CouponError{Reason: CouponExhaustedUses, Message: "Coupon usage limit reached"}
	}
	if orderTotal.LessThan(coupon.MinOrderAmount) {
		return nil, &CouponError{
			Reason:  CouponBelowMinimum,
			Message: "Minimum order amount is $" + coupon.MinOrderAmount.String(),
		}
	}

	return &CouponQuote{Coupon: coupon, Discount: Discount(coupon, orderTotal)}, nil
}

// Discount computes the reduction a coupon grants on total. Percentage
// discounts are rounded to cents. Fixed discounts are not clamped to total.
func Discount(coupon *models.Coupon, total decimal.Decimal) decimal.Decimal {
	if coupon.DiscountType == models.DiscountFixed {
		return coupon.DiscountValue
	}
	return total.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
}

// Use records one redemption of the coupon.
func (s *CouponService) Use(ctx context.Context, id uuid.UUID) error {
	return s.coupons.Use(ctx, id)
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.List(ctx)
}

// Create stores a new coupon. The code is upper-cased and the type defaults
// to percentage.
func (s *CouponService) Create(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	coupon := &models.Coupon{IsActive: true}
	if err := applyCouponInput(coupon, in); err != nil {
		return nil, err
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "Coupon code already exists")
		}
		return nil, err
	}
	return coupon, nil
}

// Update replaces the editable fields of an existing coupon. The usage
// counter is kept.
func (s *CouponService) Update(ctx context.Context, id uuid.UUID, in CouponInput) (*models.Coupon, error) {
	coupon, err := s.coupons.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCouponInput(coupon, in); err != nil {
		return nil, err
	}
	if err := s.coupons.Update(ctx, coupon); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "Coupon code already exists")
		}
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.coupons.Delete(ctx, id)
}

func applyCouponInput(coupon *models.Coupon, in CouponInput) error {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return apperr.Validation("code is required")
	}

	discountType := in.DiscountType
	if discountType == "" {
		discountType = models.DiscountPercentage
	}
	if discountType != models.DiscountPercentage && discountType != models.DiscountFixed {
		return apperr.Validation("discount_type must be percentage or fixed")
	}
	if !in.DiscountValue.IsPositive() {
		return apperr.Validation("discount_value must be positive")
	}
	if discountType == models.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.Validation("percentage discount cannot exceed 100")
	}
	if in.MinOrderAmount.IsNegative() {
		return apperr.Validation("min_order_amount cannot be negative")
	}
	if in.MaxUses != nil && *in.MaxUses < 1 {
		return apperr.Validation("max_uses must be at least 1")
	}

	coupon.Code = code
	coupon.DiscountType = discountType
	coupon.DiscountValue = in.DiscountValue
	coupon.MinOrderAmount = in.MinOrderAmount
	coupon.MaxUses = in.MaxUses
	coupon.ExpiresAt = in.ExpiresAt
	if in.IsActive != nil {
		coupon.IsActive = *in.IsActive
	}
	return nil
}
