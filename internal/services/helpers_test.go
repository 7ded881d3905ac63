package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store/memstore"
)

const testSecret = "test-secret"

type sentOTP struct {
	to      string
	code    string
	purpose models.OTPPurpose
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string, purpose models.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentOTP{to: to, code: code, purpose: purpose})
	return nil
}

func (m *fakeMailer) last() sentOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeNotifier struct {
	mu     sync.Mutex
	orders []models.Order
	err    error
}

func (n *fakeNotifier) NotifyNewOrder(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, *order)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type testEnv struct {
	store    *memstore.Store
	mailer   *fakeMailer
	notifier *fakeNotifier
	auth     *AuthService
	coupons  *CouponService
	payments *PaymentService
	orders   *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	lg := zap.NewNop()
	st := memstore.New()
	mailer := &fakeMailer{}
	notifier := &fakeNotifier{}

	auth := NewAuthService(st.Users, st.OTPs, mailer, AuthConfig{
		Secret:   testSecret,
		TokenTTL: time.Hour,
		DevEcho:  true,
	}, lg)
	payments := NewPaymentService(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		Currency:  "INR",
	}, st.Payments, lg)
	orders := NewOrderService(st.Orders, st.Users, auth, payments, notifier, lg)
	t.Cleanup(orders.Wait)

	return &testEnv{
		store:    st,
		mailer:   mailer,
		notifier: notifier,
		auth:     auth,
		coupons:  NewCouponService(st.Coupons),
		payments: payments,
		orders:   orders,
	}
}

func ptr[T any](v T) *T { return &v }

func zapNop() *zap.Logger { return zap.NewNop() }
