package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
)

// CustomerService is the admin view over non-admin accounts.
type CustomerService struct {
	users  UserStore
	orders OrderStore
}

// NewCustomerService constructs CustomerService.
func NewCustomerService(users UserStore, orders OrderStore) *CustomerService {
	return &CustomerService{users: users, orders: orders}
}

func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.users.ListCustomers(ctx, limit, offset)
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Customer not found")
	}
	return user, err
}

func (s *CustomerService) Orders(ctx context.Context, id uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, id)
}

// Addresses returns the distinct non-empty shipping addresses of a
// customer's orders, most recently used first.
func (s *CustomerService) Addresses(ctx context.Context, id uuid.UUID) ([]string, error) {
	orders, err := s.orders.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(orders))
	addresses := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.ShippingAddress == "" {
			continue
		}
		if _, ok := seen[o.ShippingAddress]; ok {
			continue
		}
		seen[o.ShippingAddress] = struct{}{}
		addresses = append(addresses, o.ShippingAddress)
	}
	return addresses, nil
}
