package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
	"github.com/example/vurel/internal/utils"
)

const notifyTimeout = 10 * time.Second

// OrderNotifier is told about every placed order.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, order *models.Order) error
}

// SignatureChecker verifies payment callback signatures.
type SignatureChecker interface {
	CheckSignature(orderID, paymentID, signature string) error
}

// PlaceOrderRequest is a checkout submission. Token is the caller's bearer
// token, if any.
type PlaceOrderRequest struct {
	Items            []models.OrderItem
	Total            decimal.Decimal
	ShippingAddress  string
	PaymentMethod    string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	PaymentID        string
	PaymentOrderID   string
	PaymentSignature string
	CouponID         *uuid.UUID
	Token            string
}

// OrderConfirmation is the result of a placed order. Session is set only
// when checkout provisioned a new account.
type OrderConfirmation struct {
	Order          *models.Order
	AccountCreated bool
	Session        *Session
}

// OrderService runs checkout and order administration.
type OrderService struct {
	orders   OrderStore
	users    UserStore
	auth     *AuthService
	payments SignatureChecker
	notifier OrderNotifier
	lg       *zap.Logger
	now      func() time.Time

	notifications sync.WaitGroup
}

// NewOrderService constructs OrderService.
func NewOrderService(
	orders OrderStore,
	users UserStore,
	auth *AuthService,
	payments SignatureChecker,
	notifier OrderNotifier,
	lg *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		auth:     auth,
		payments: payments,
		notifier: notifier,
		lg:       lg,
		now:      time.Now,
	}
}

// PlaceOrder persists a checkout. The customer is the bearer of a valid
// token, else the account matching CustomerEmail, else a new verified guest
// account created for that email, else nobody. A new account, the order and
// the coupon redemption are written atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderConfirmation, error) {
	if err := validateCart(req); err != nil {
		return nil, err
	}

	customer, newCustomer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.PaymentOrderID != "" && req.PaymentSignature != "" {
		if err := s.payments.CheckSignature(req.PaymentOrderID, req.PaymentID, req.PaymentSignature); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		Items:           req.Items,
		Total:           req.Total.Round(2),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentID:       req.PaymentID,
		CouponID:        req.CouponID,
		Status:          models.OrderStatusPending,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.DefaultPaymentMethod
	}
	if customer != nil {
		order.CustomerID = &customer.ID
		fillSnapshot(order, customer)
	}

	if err := s.orders.Create(ctx, order, newCustomer); err != nil {
		return nil, placeOrderError(err)
	}

	s.lg.Info("Order placed",
		zap.Stringer("order_id", order.ID),
		zap.String("total", order.Total.String()),
		zap.Bool("account_created", newCustomer != nil),
	)
	s.notify(ctx, order)

	confirmation := &OrderConfirmation{Order: order}
	if newCustomer != nil {
		confirmation.AccountCreated = true
		token, err := s.auth.IssueToken(newCustomer)
		if err != nil {
			s.lg.Error("Issue token for guest account", zap.Error(err))
			return confirmation, nil
		}
		confirmation.Session = &Session{Token: token, User: newCustomer}
	}
	return confirmation, nil
}

func validateCart(req PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return apperr.Validation("Items are required")
	}
	if !req.Total.IsPositive() {
		return apperr.Validation("Total is required")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return apperr.Validation("Item quantity must be at least 1")
		}
		if item.Price.IsNegative() {
			return apperr.Validation("Item price cannot be negative")
		}
	}
	return nil
}

// resolveCustomer returns the existing customer or the account to create.
// An unusable token falls back to email resolution.
func (s *OrderService) resolveCustomer(ctx context.Context, req PlaceOrderRequest) (existing, created *models.User, err error) {
	if req.Token != "" {
		user, err := s.auth.Authenticate(ctx, req.Token)
		switch {
		case err == nil:
			return user, nil, nil
		case !apperr.Is(err, apperr.KindUnauthorized):
			return nil, nil, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if email == "" {
		return nil, nil, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return user, nil, nil
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, nil, err
	}

	password, err := utils.RandomPassword()
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate guest password")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, nil, errors.Wrap(err, "hash guest password")
	}

	first, last := splitName(req.CustomerName)
	return nil, &models.User{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.CustomerPhone),
		IsVerified:   true,
	}, nil
}

// splitName splits on the first space. An empty name becomes "Guest".
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Guest", ""
	}
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

func fillSnapshot(order *models.Order, customer *models.User) {
	if order.CustomerName == "" {
		order.CustomerName = customer.FullName()
	}
	if order.CustomerEmail == "" {
		order.CustomerEmail = customer.Email
	}
	if order.CustomerPhone == "" {
		order.CustomerPhone = customer.Phone
	}
}

func placeOrderError(err error) error {
	switch {
	case errors.Is(err, store.ErrCouponExhausted):
		return err
	case apperr.Is(err, apperr.KindConflict):
		return apperr.Wrap(apperr.KindConflict, err, "An account with this email was just created, please retry")
	case apperr.Is(err, apperr.KindNotFound):
		return apperr.Wrap(apperr.KindValidation, err, "Invalid coupon")
	default:
		return err
	}
}

func (s *OrderService) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}

	snapshot := *order
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyNewOrder(ctx, &snapshot); err != nil {
			s.lg.Warn("Order notification failed", zap.Stringer("order_id", snapshot.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until pending order notifications have finished.
func (s *OrderService) Wait() {
	s.notifications.Wait()
}

// Get returns an order. A signed-in customer who is not an admin cannot read
// another customer's order.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID, caller *models.User) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}

	if caller != nil && !caller.IsAdmin && order.CustomerID != nil && *order.CustomerID != caller.ID {
		return nil, apperr.NotFound("Order not found")
	}
	return order, nil
}

// ListForCustomer returns the customer's orders, newest first.
func (s *OrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListAll returns a page of all orders for administrators.
func (s *OrderService) ListAll(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	return s.orders.List(ctx, f)
}

// UpdateStatus moves an order along Pending, Processing, Shipped, Delivered.
// Cancelled is reachable from any state before Delivered. Setting the
// current status again is a no-op. Delivered stamps CompletedAt once.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	if strings.TrimSpace(status) == "" {
		return nil, apperr.Validation("Status is required")
	}
	next, ok := ParseOrderStatus(status)
	if !ok {
		return nil, apperr.Validation("Invalid status: " + status)
	}

	order, err := s.orders.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}

	if order.Status == next {
		return order, nil
	}
	if !CanTransition(order.Status, next) {
		return nil, apperr.Validation("Cannot change status from " + string(order.Status) + " to " + string(next))
	}

	order.Status = next
	if next == models.OrderStatusDelivered && order.CompletedAt == nil {
		now := s.now()
		order.CompletedAt = &now
	}
	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		return nil, err
	}

	s.lg.Info("Order status updated", zap.Stringer("order_id", order.ID), zap.String("status", string(next)))
	return order, nil
}

var statusRank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusProcessing: 1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

// ParseOrderStatus matches status case-insensitively against known values.
func ParseOrderStatus(status string) (models.OrderStatus, bool) {
	status = strings.TrimSpace(status)
	for _, s := range []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	} {
		if strings.EqualFold(status, string(s)) {
			return s, true
		}
	}
	return "", false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	if from == models.OrderStatusDelivered || from == models.OrderStatusCancelled {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	return ok && toRank > fromRank
}
