package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store/memstore"
)

func TestCustomerDirectory(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	svc := NewCustomerService(st.Users, st.Orders)

	admin := &models.User{Email: "admin@vurel.in", IsAdmin: true}
	meera := &models.User{Email: "meera@example.com"}
	require.NoError(t, st.Users.Create(ctx, admin))
	require.NoError(t, st.Users.Create(ctx, meera))

	for _, addr := range []string{"12 MG Road", "", "4 Park Street", "12 MG Road"} {
		require.NoError(t, st.Orders.Create(ctx, &models.Order{
			CustomerID:      &meera.ID,
			CustomerEmail:   meera.Email,
			ShippingAddress: addr,
			Status:          models.OrderStatusPending,
		}, nil))
	}

	customers, total, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, customers, 1)
	assert.Equal(t, meera.ID, customers[0].ID)

	orders, err := svc.Orders(ctx, meera.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 4)

	addresses, err := svc.Addresses(ctx, meera.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"12 MG Road", "4 Park Street"}, addresses)

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Customer not found", apperr.Message(err))
}
