package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
)

// ProductInput holds the editable product fields.
type ProductInput struct {
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Stock         int
	ImageURL      string
	Colors        []string
	Sizes         []string
	IsFeatured    bool
}

// CatalogService serves and manages products.
type CatalogService struct {
	products ProductStore
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	return s.products.List(ctx, f)
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	return product, err
}

// Create stores a product with its status derived from stock.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := &models.Product{}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update replaces the product's fields and recomputes its status.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.products.Delete(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.NotFound("Product not found")
	}
	return err
}

func applyProductInput(product *models.Product, in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if in.Price.IsNegative() {
		return apperr.Validation("price cannot be negative")
	}
	if in.OriginalPrice.Valid && in.OriginalPrice.Decimal.IsNegative() {
		return apperr.Validation("original_price cannot be negative")
	}

	product.Name = name
	product.Description = in.Description
	product.Category = strings.TrimSpace(in.Category)
	product.Price = in.Price
	product.OriginalPrice = in.OriginalPrice
	product.Stock = in.Stock
	product.ImageURL = in.ImageURL
	product.Colors = in.Colors
	product.Sizes = in.Sizes
	product.IsFeatured = in.IsFeatured
	product.RefreshStatus()
	return nil
}
