package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/example/vurel/internal/models"
)

// PaymentSessionRepository persists gateway sessions.
type PaymentSessionRepository struct {
	base
}

func (r *PaymentSessionRepository) Create(ctx context.Context, session *models.PaymentSession) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(session).Error, "payment session")
}

// MarkVerified records the captured payment against its gateway order.
func (r *PaymentSessionRepository) MarkVerified(ctx context.Context, providerOrderID, paymentID string, at time.Time) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.PaymentSession{}).
		Where("provider_order_id = ?", providerOrderID).
		Updates(map[string]any{
			"status":      models.PaymentSessionVerified,
			"payment_id":  paymentID,
			"verified_at": at,
		})
	if res.Error != nil {
		return translate(res.Error, "payment session")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "payment session")
	}
	return nil
}
