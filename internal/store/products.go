package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vurel/internal/models"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
	Offset       int
}

// ProductRepository persists catalog products.
type ProductRepository struct {
	base
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db.Model(&models.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "product")
	}

	var products []models.Product
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, 0, translate(err, "product")
	}
	return products, total, nil
}

func (r *ProductRepository) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &product, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(product).Error, "product")
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Save(product).Error, "product")
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "product")
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&models.Product{}).Count(&n).Error
	return n, translate(err, "product")
}
