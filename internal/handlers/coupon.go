package handlers

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/services"
)

// CouponHandler serves coupon validation and administration.
type CouponHandler struct {
	coupons *services.CouponService
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

type validateCouponRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type couponQuoteResponse struct {
	Valid         bool                `json:"valid"`
	Discount      float64             `json:"discount"`
	DiscountType  models.DiscountType `json:"discount_type"`
	DiscountValue float64             `json:"discount_value"`
	CouponID      uuid.UUID           `json:"coupon_id"`
}

// Validate quotes the discount for a code against an order total. A
// rejected code answers 400 with valid=false and the reason.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req validateCouponRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	quote, err := h.coupons.Validate(c.UserContext(), req.Code, req.OrderTotal)
	var rejected *services.CouponError
	switch {
	case errors.As(err, &rejected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"valid":   false,
			"message": rejected.Message,
		})
	case err != nil:
		return err
	}

	return c.JSON(couponQuoteResponse{
		Valid:         true,
		Discount:      money(quote.Discount),
		DiscountType:  quote.Coupon.DiscountType,
		DiscountValue: quote.Coupon.DiscountValue.InexactFloat64(),
		CouponID:      quote.Coupon.ID,
	})
}

type couponRequest struct {
	Code           string              `json:"code" validate:"required"`
	DiscountType   models.DiscountType `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue  *decimal.Decimal    `json:"discount_value" validate:"required"`
	MinOrderAmount decimal.Decimal     `json:"min_order_amount"`
	MaxUses        *int                `json:"max_uses" validate:"omitempty,min=1"`
	ExpiresAt      *time.Time          `json:"expires_at"`
	IsActive       *bool               `json:"is_active"`
}

func (r couponRequest) input() services.CouponInput {
	return services.CouponInput{
		Code:           r.Code,
		DiscountType:   r.DiscountType,
		DiscountValue:  *r.DiscountValue,
		MinOrderAmount: r.MinOrderAmount,
		MaxUses:        r.MaxUses,
		ExpiresAt:      r.ExpiresAt,
		IsActive:       r.IsActive,
	}
}

// ListCoupons returns every coupon.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.coupons.List(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]couponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, newCouponResponse(&coupons[i]))
	}
	return c.JSON(out)
}

// CreateCoupon stores a new coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	coupon, err := h.coupons.Create(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newCouponResponse(coupon))
}

// UpdateCoupon replaces a coupon's terms. The usage count is kept.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := parseID(c, "Coupon")
	if err != nil {
		return err
	}

	var req couponRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	coupon, err := h.coupons.Update(c.UserContext(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(newCouponResponse(coupon))
}

// DeleteCoupon removes a coupon.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := parseID(c, "Coupon")
	if err != nil {
		return err
	}

	if err := h.coupons.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Coupon deleted"})
}
