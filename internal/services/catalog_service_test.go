package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
	"github.com/example/vurel/internal/store/memstore"
)

func TestCatalogStatusFollowsStock(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(memstore.New().Products)

	product, err := svc.Create(ctx, ProductInput{Name: " Linen Shirt ", Price: decimal.NewFromInt(1499), Stock: 50})
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", product.Name)
	assert.Equal(t, models.ProductStatusActive, product.Status)

	tests := []struct {
		stock int
		want  string
	}{
		{stock: 19, want: models.ProductStatusLowStock},
		{stock: 20, want: models.ProductStatusActive},
		{stock: 1, want: models.ProductStatusLowStock},
		{stock: 0, want: models.ProductStatusOutOfStock},
		{stock: -3, want: models.ProductStatusOutOfStock},
	}
	for _, tt := range tests {
		updated, err := svc.Update(ctx, product.ID, ProductInput{Name: "Linen Shirt", Price: decimal.NewFromInt(1499), Stock: tt.stock})
		require.NoError(t, err)
		assert.Equal(t, tt.want, updated.Status, "stock %d", tt.stock)

		stored, err := svc.Get(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.want, stored.Status)
	}
}

func TestCatalogValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(memstore.New().Products)

	_, err := svc.Create(ctx, ProductInput{Name: "  ", Price: decimal.NewFromInt(1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, ProductInput{Name: "Scarf", Price: decimal.NewFromInt(-1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Product not found", apperr.Message(err))

	_, err = svc.Update(ctx, uuid.New(), ProductInput{Name: "Scarf"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, uuid.New()), apperr.KindNotFound))
}

func TestCatalogListFilters(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(memstore.New().Products)

	for _, in := range []ProductInput{
		{Name: "Kurta", Category: "men", Stock: 5, IsFeatured: true},
		{Name: "Saree", Category: "women", Stock: 5},
		{Name: "Sherwani", Category: "men", Stock: 5},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	men, total, err := svc.List(ctx, store.ProductFilter{Category: "men"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, men, 2)

	featured, total, err := svc.List(ctx, store.ProductFilter{FeaturedOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Kurta", featured[0].Name)

	paged, total, err := svc.List(ctx, store.ProductFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, paged, 1)
}
