package services

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
)

const recentOrdersLimit = 5

// DashboardStats summarises the store for administrators.
type DashboardStats struct {
	TotalRevenue   decimal.Decimal
	TotalOrders    int64
	TotalProducts  int64
	TotalCustomers int64
	RecentOrders   []models.Order
}

// DashboardService aggregates admin statistics.
type DashboardService struct {
	orders   OrderStore
	products ProductStore
	users    UserStore
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(orders OrderStore, products ProductStore, users UserStore) *DashboardService {
	return &DashboardService{orders: orders, products: products, users: users}
}

// Stats runs the aggregate queries concurrently. Revenue excludes cancelled
// orders and customers exclude administrators.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.orders.Revenue(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.orders.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.products.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalCustomers, err = s.users.CountCustomers(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentOrders, _, err = s.orders.List(ctx, store.OrderFilter{Limit: recentOrdersLimit})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
