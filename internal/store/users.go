package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vurel/internal/models"
)

// UserRepository persists users.
type UserRepository struct {
	base
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetByEmail matches the email case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	user.Email = strings.ToLower(user.Email)
	return translate(db.Create(user).Error, "user")
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	user.Email = strings.ToLower(user.Email)
	return translate(db.Save(user).Error, "user")
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user")
	}
	return nil
}

// CountCustomers counts non-admin users.
func (r *UserRepository) CountCustomers(ctx context.Context) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&models.User{}).Where("is_admin = ?", false).Count(&n).Error
	return n, translate(err, "user")
}

// ListCustomers pages non-admin users, newest first.
func (r *UserRepository) ListCustomers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db.Model(&models.User{}).Where("is_admin = ?", false).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "user")
	}

	var users []models.User
	q = q.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, translate(err, "user")
	}
	return users, total, nil
}
