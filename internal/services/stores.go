package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
)

// UserStore persists users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountCustomers(ctx context.Context) (int64, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

// OTPStore persists one-time codes.
type OTPStore interface {
	Replace(ctx context.Context, otp *models.OTPCode) error
	Consume(ctx context.Context, email, code string, purpose models.OTPPurpose, now time.Time) error
}

// ProductStore persists catalog products.
type ProductStore interface {
	List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// CouponStore persists coupons.
type CouponStore interface {
	GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	Use(ctx context.Context, id uuid.UUID) error
}

// OrderStore persists orders. Create also provisions newCustomer, when not
// nil, and consumes the order's coupon in the same transaction.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order, newCustomer *models.User) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	List(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// PaymentSessionStore persists payment gateway sessions.
type PaymentSessionStore interface {
	Create(ctx context.Context, session *models.PaymentSession) error
	MarkVerified(ctx context.Context, providerOrderID, paymentID string, at time.Time) error
}

var (
	_ UserStore           = (*store.UserRepository)(nil)
	_ OTPStore            = (*store.OTPRepository)(nil)
	_ ProductStore        = (*store.ProductRepository)(nil)
	_ CouponStore         = (*store.CouponRepository)(nil)
	_ OrderStore          = (*store.OrderRepository)(nil)
	_ PaymentSessionStore = (*store.PaymentSessionRepository)(nil)
)
