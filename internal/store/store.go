// Package store implements the repositories on top of gorm.
package store

import (
	"context"
	"database/sql/driver"
	"net"
	"time"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/example/vurel/internal/apperr"
)

// Store groups the gorm-backed repositories.
type Store struct {
	Users    *UserRepository
	OTPs     *OTPRepository
	Products *ProductRepository
	Coupons  *CouponRepository
	Orders   *OrderRepository
	Payments *PaymentSessionRepository
}

// New wires repositories over db. Every call is bounded by timeout.
func New(db *gorm.DB, timeout time.Duration) *Store {
	b := base{db: db, timeout: timeout}
	return &Store{
		Users:    &UserRepository{base: b},
		OTPs:     &OTPRepository{base: b},
		Products: &ProductRepository{base: b},
		Coupons:  &CouponRepository{base: b},
		Orders:   &OrderRepository{base: b},
		Payments: &PaymentSessionRepository{base: b},
	}
}

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

// conn returns a session bound to a context that expires after the
// configured timeout.
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// translate maps gorm and driver errors onto apperr kinds.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.KindConflict, err, entity+" already exists")
	case isTransient(err):
		return apperr.Transient(err, "store unavailable, retry later")
	default:
		return errors.Wrap(err, entity)
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
