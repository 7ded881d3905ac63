package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/services"
	"github.com/example/vurel/internal/store/memstore"
)

type testApp struct {
	app      *fiber.App
	store    *memstore.Store
	auth     *services.AuthService
	payments *services.PaymentService
	pingErr  error
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	lg := zap.NewNop()
	st := memstore.New()
	ta := &testApp{store: st}

	ta.auth = services.NewAuthService(st.Users, st.OTPs, services.NewSMTPMailer(config.SMTPConfig{}), services.AuthConfig{
		Secret:   "routes-test-secret",
		TokenTTL: time.Hour,
		DevEcho:  true,
	}, lg)
	ta.payments = services.NewPaymentService(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		Currency:  "INR",
	}, st.Payments, lg)
	telegram := services.NewTelegramService(config.TelegramConfig{}, "INR")
	orders := services.NewOrderService(st.Orders, st.Users, ta.auth, ta.payments, telegram, lg)
	t.Cleanup(orders.Wait)

	opts := Options{CORSOrigins: "*", OTPRateLimit: 100}
	ta.app = New(lg, opts)
	Register(ta.app, Services{
		Auth:      ta.auth,
		Catalog:   services.NewCatalogService(st.Products),
		Coupons:   services.NewCouponService(st.Coupons),
		Orders:    orders,
		Payments:  ta.payments,
		Dashboard: services.NewDashboardService(st.Orders, st.Products, st.Users),
		Customers: services.NewCustomerService(st.Users, st.Orders),
		Ping:      func(context.Context) error { return ta.pingErr },
	}, opts)
	return ta
}

func (ta *testApp) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (ta *testApp) userToken(t *testing.T, email string, admin bool) string {
	t.Helper()

	user := &models.User{FirstName: "Test", Email: email, PasswordHash: "x", IsAdmin: admin, IsVerified: true}
	require.NoError(t, ta.store.Users.Create(context.Background(), user))
	token, err := ta.auth.IssueToken(user)
	require.NoError(t, err)
	return token
}

func checkout(email string) map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"product_id": uuid.NewString(), "name": "Cotton Kurta", "quantity": 1, "price": 1200},
		},
		"total":            1200,
		"shipping_address": "4 Park Street, Kolkata",
		"customer_name":    "Meera Sen",
		"customer_email":   email,
	}
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	ta.pingErr = errors.New("connection refused")
	status, body = ta.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "database unavailable", body["detail"])
}

func TestAuthMiddlewareResponses(t *testing.T) {
	ta := newTestApp(t)
	customer := ta.userToken(t, "shopper@example.com", false)
	admin := ta.userToken(t, "admin@example.com", true)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{"missing", "", http.StatusUnauthorized, "Token is missing"},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"customer", customer, http.StatusForbidden, "Admin access required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ta.do(t, http.MethodGet, "/api/admin/dashboard", nil, tt.header)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.detail, body["detail"])
		})
	}

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Token abc")
		resp, err := ta.app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	status, _ := ta.do(t, http.MethodGet, "/api/admin/dashboard", nil, admin)
	assert.Equal(t, http.StatusOK, status)
}

func TestGuestCheckoutSignsInNewAccount(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, http.MethodPost, "/api/orders", checkout("meera@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Order placed successfully!", body["message"])
	assert.Equal(t, "Pending", body["status"])
	assert.Equal(t, 1200.0, body["total"])
	assert.Equal(t, true, body["account_created"])
	assert.Equal(t, "bearer", body["token_type"])

	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	status, me := ta.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "meera@example.com", me["email"])

	// Same email again attaches to the existing account without a session.
	status, body = ta.do(t, http.MethodPost, "/api/orders", checkout("meera@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	assert.NotContains(t, body, "access_token")
	assert.NotContains(t, body, "account_created")
}

func TestCheckoutRequestSchema(t *testing.T) {
	ta := newTestApp(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		detail string
	}{
		{"no items", func(r map[string]any) { delete(r, "items") }, "items is required"},
		{"empty items", func(r map[string]any) { r["items"] = []map[string]any{} }, "items must contain at least 1 item"},
		{"zero quantity", func(r map[string]any) {
			r["items"] = []map[string]any{{"name": "Dupatta", "quantity": 0, "price": 300}}
		}, "quantity must be at least 1"},
		{"no total", func(r map[string]any) { delete(r, "total") }, "total is required"},
		{"negative total", func(r map[string]any) { r["total"] = -5 }, "total must be greater than 0"},
		{"bad email", func(r map[string]any) { r["customer_email"] = "not-an-email" }, "customer_email must be a valid email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := checkout("")
			tt.mutate(req)
			status, body := ta.do(t, http.MethodPost, "/api/orders", req, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.detail, body["detail"])
		})
	}
}

func TestCouponValidateRejection(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, ta.store.Coupons.Create(context.Background(), &models.Coupon{
		Code:           "FESTIVE",
		DiscountType:   models.DiscountPercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(1000),
		IsActive:       true,
	}))

	status, body := ta.do(t, http.MethodPost, "/api/coupons/validate",
		map[string]any{"code": "NOPE", "order_total": 2000}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Invalid coupon code", body["message"])

	status, body = ta.do(t, http.MethodPost, "/api/coupons/validate",
		map[string]any{"code": "festive", "order_total": 2000}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, 200.0, body["discount"])
	assert.Equal(t, "percentage", body["discount_type"])
}

func TestPaymentVerify(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, http.MethodPost, "/api/payment/verify", map[string]any{
		"razorpay_order_id":   "order_abc",
		"razorpay_payment_id": "pay_abc",
		"razorpay_signature":  "deadbeef",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["verified"])
	assert.Equal(t, "Invalid signature", body["detail"])

	status, body = ta.do(t, http.MethodPost, "/api/payment/verify", map[string]any{
		"order_id":   "order_abc",
		"payment_id": "pay_abc",
		"signature":  ta.payments.Signature("order_abc", "pay_abc"),
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["verified"])
	assert.Equal(t, "pay_abc", body["payment_id"])
}

func TestAdminOrderStatusUpdate(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.userToken(t, "admin@example.com", true)

	status, placed := ta.do(t, http.MethodPost, "/api/orders", checkout("buyer@example.com"), "")
	require.Equal(t, http.StatusCreated, status)
	path := "/api/admin/orders/" + placed["id"].(string)

	status, body := ta.do(t, http.MethodPut, path, map[string]any{"status": "shipped"}, admin)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Shipped", body["status"])
	assert.Nil(t, body["completed_at"])

	status, body = ta.do(t, http.MethodPut, path, map[string]any{"status": "Pending"}, admin)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot change status from Shipped to Pending", body["detail"])

	status, body = ta.do(t, http.MethodPut, path, map[string]any{"status": "Delivered"}, admin)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body["completed_at"])

	status, body = ta.do(t, http.MethodPut, "/api/admin/orders/not-a-uuid", map[string]any{"status": "Shipped"}, admin)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Order not found", body["detail"])
}

func TestAdminOrdersPaginationEnvelope(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.userToken(t, "admin@example.com", true)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		status, _ := ta.do(t, http.MethodPost, "/api/orders", checkout(email), "")
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := ta.do(t, http.MethodGet, "/api/admin/orders?page=1&limit=2", nil, admin)
	require.Equal(t, http.StatusOK, status)

	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3.0, pagination["total_items"])
	assert.Equal(t, 2.0, pagination["items_per_page"])
	assert.Equal(t, 1.0, pagination["current_page"])
}
