package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/vurel/internal/models"
)

// OTPRepository persists one-time codes.
type OTPRepository struct {
	base
}

// Replace deletes any unused code for the same email and purpose and stores
// otp, atomically.
func (r *OTPRepository) Replace(ctx context.Context, otp *models.OTPCode) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	otp.Email = strings.ToLower(otp.Email)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ? AND used = ?", otp.Email, otp.Purpose, false).
			Delete(&models.OTPCode{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
	return translate(err, "otp")
}

// Consume marks the newest matching, unused and unexpired code as used. The
// update is conditional on used = false so a code is consumed at most once.
func (r *OTPRepository) Consume(ctx context.Context, email, code string, purpose models.OTPPurpose, now time.Time) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	candidate := db.Model(&models.OTPCode{}).
		Select("id").
		Where("email = ? AND code = ? AND purpose = ? AND used = ? AND expires_at > ?",
			strings.ToLower(email), code, purpose, false, now).
		Order("created_at DESC").
		Limit(1)

	res := db.Model(&models.OTPCode{}).
		Where("id = (?) AND used = ?", candidate, false).
		Update("used", true)
	if res.Error != nil {
		return translate(res.Error, "otp")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "otp")
	}
	return nil
}
