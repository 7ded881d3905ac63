package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store/memstore"
)

func newRazorpayStub(t *testing.T, status int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var body razorpayOrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, 1, body.PaymentCapture)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(razorpayOrderResponse{ID: "order_Test123", Amount: body.Amount, Currency: body.Currency, Status: "created"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPaymentService(baseURL string) (*PaymentService, *memstore.Store) {
	st := memstore.New()
	return NewPaymentService(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL,
		Currency:  "INR",
	}, st.Payments, zap.NewNop()), st
}

func TestOpenSession(t *testing.T) {
	var calls atomic.Int32
	srv := newRazorpayStub(t, http.StatusOK, &calls)
	svc, st := newPaymentService(srv.URL + "/v1")

	info, err := svc.OpenSession(context.Background(), decimal.RequireFromString("499.99"))
	require.NoError(t, err)
	assert.Equal(t, "order_Test123", info.OrderID)
	assert.EqualValues(t, 49999, info.Amount)
	assert.Equal(t, "INR", info.Currency)
	assert.Equal(t, "rzp_test_key", info.KeyID)

	session, ok := st.Payments.Get("order_Test123")
	require.True(t, ok)
	assert.Equal(t, models.PaymentSessionCreated, session.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenSessionBelowMinimum(t *testing.T) {
	var calls atomic.Int32
	srv := newRazorpayStub(t, http.StatusOK, &calls)
	svc, _ := newPaymentService(srv.URL + "/v1")

	for _, amount := range []string{"0.5", "0.999", "0", "-10"} {
		_, err := svc.OpenSession(context.Background(), decimal.RequireFromString(amount))
		assert.True(t, apperr.Is(err, apperr.KindValidation), "amount %s", amount)
		assert.Equal(t, "Amount must be at least INR 1", apperr.Message(err))
	}
	assert.Zero(t, calls.Load(), "no provider call for rejected amounts")

	_, err := svc.OpenSession(context.Background(), decimal.NewFromInt(1))
	assert.NoError(t, err)
}

func TestOpenSessionProviderFailure(t *testing.T) {
	var calls atomic.Int32
	srv := newRazorpayStub(t, http.StatusUnauthorized, &calls)
	svc, _ := newPaymentService(srv.URL + "/v1")

	_, err := svc.OpenSession(context.Background(), decimal.NewFromInt(100))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestOpenSessionUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	svc, _ := newPaymentService(url)

	_, err := svc.OpenSession(context.Background(), decimal.NewFromInt(100))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestToMinorUnits(t *testing.T) {
	assert.EqualValues(t, 1099, ToMinorUnits(decimal.RequireFromString("10.999")))
	assert.EqualValues(t, 100, ToMinorUnits(decimal.NewFromInt(1)))
	assert.EqualValues(t, 50, ToMinorUnits(decimal.RequireFromString("0.5")))
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := newRazorpayStub(t, http.StatusOK, &calls)
	svc, st := newPaymentService(srv.URL + "/v1")

	info, err := svc.OpenSession(ctx, decimal.NewFromInt(250))
	require.NoError(t, err)

	sig := svc.Signature(info.OrderID, "pay_Abc")
	require.NoError(t, svc.Verify(ctx, info.OrderID, "pay_Abc", sig))

	session, _ := st.Payments.Get(info.OrderID)
	assert.Equal(t, models.PaymentSessionVerified, session.Status)
	assert.Equal(t, "pay_Abc", session.PaymentID)

	assert.ErrorIs(t, svc.Verify(ctx, info.OrderID, "pay_Other", sig), ErrSignatureMismatch)
	assert.ErrorIs(t, svc.Verify(ctx, info.OrderID, "pay_Abc", "not-hex"), ErrSignatureMismatch)

	err = svc.Verify(ctx, "", "pay_Abc", sig)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.NotErrorIs(t, err, ErrSignatureMismatch)

	assert.NoError(t, svc.Verify(ctx, "order_Unknown", "pay_X", svc.Signature("order_Unknown", "pay_X")),
		"a valid signature for an untracked session still verifies")
}

func TestVerifyWithoutSecret(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewPaymentService(config.RazorpayConfig{KeyID: "rzp_test_key", Currency: "INR"}, st.Payments, zap.NewNop())

	mac := hmac.New(sha256.New, nil)
	mac.Write([]byte("order_fake|pay_fake"))
	forged := hex.EncodeToString(mac.Sum(nil))

	err := svc.Verify(ctx, "order_fake", "pay_fake", forged)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Equal(t, "payment gateway not configured", apperr.Message(err))

	err = svc.CheckSignature("order_fake", "pay_fake", forged)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestOpenSessionLogsUnreadableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewPaymentService(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   srv.URL,
		Currency:  "INR",
	}, memstore.New().Payments, zap.New(core))

	_, err := svc.OpenSession(context.Background(), decimal.NewFromInt(100))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	entries := logs.FilterMessage("Razorpay order rejected with unreadable body").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusBadGateway, fields["status"])
	assert.Equal(t, "<html>bad gateway</html>", fields["body"])
	assert.Contains(t, fields, "error")
}
