package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/models"
)

// minAmountMinor is the smallest chargeable amount in minor units.
const minAmountMinor = 100

// ErrSignatureMismatch is returned when a payment callback signature does not
// match the gateway order and payment ids.
var ErrSignatureMismatch = apperr.Validation("Invalid signature")

var errGatewayNotConfigured = apperr.New(apperr.KindUpstream, "payment gateway not configured")

// PaymentSessionInfo describes a gateway order the client can pay against.
type PaymentSessionInfo struct {
	OrderID  string
	Amount   int64
	Currency string
	KeyID    string
}

// PaymentService talks to the Razorpay orders API and checks payment
// signatures.
type PaymentService struct {
	cfg      config.RazorpayConfig
	client   *http.Client
	sessions PaymentSessionStore
	lg       *zap.Logger
	now      func() time.Time
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(cfg config.RazorpayConfig, sessions PaymentSessionStore, lg *zap.Logger) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		client:   &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
		lg:       lg,
		now:      time.Now,
	}
}

type razorpayOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaymentCapture int    `json:"payment_capture"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// ToMinorUnits converts a major-unit amount to minor units, truncating any
// fraction of a minor unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}

// OpenSession creates a gateway order for amount.
func (s *PaymentService) OpenSession(ctx context.Context, amount decimal.Decimal) (*PaymentSessionInfo, error) {
	minor := ToMinorUnits(amount)
	if minor < minAmountMinor {
		return nil, apperr.Validation("Amount must be at least " + s.cfg.Currency + " 1")
	}
	if s.cfg.KeyID == "" || s.cfg.KeySecret == "" {
		return nil, errGatewayNotConfigured
	}

	payload, err := json.Marshal(razorpayOrderRequest{
		Amount:         minor,
		Currency:       s.cfg.Currency,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal order request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.KeyID, s.cfg.KeySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "payment provider unavailable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Upstream(err, "payment provider unavailable")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rerr razorpayErrorResponse
		if err := json.Unmarshal(body, &rerr); err != nil {
			s.lg.Warn("Razorpay order rejected with unreadable body",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", body[:min(len(body), 512)]),
				zap.Error(err),
			)
		} else {
			s.lg.Warn("Razorpay order rejected",
				zap.Int("status", resp.StatusCode),
				zap.String("code", rerr.Error.Code),
				zap.String("description", rerr.Error.Description),
			)
		}
		return nil, apperr.Upstream(fmt.Errorf("razorpay status %d", resp.StatusCode), "payment provider rejected the order")
	}

	var order razorpayOrderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, apperr.Upstream(err, "invalid payment provider response")
	}
	if order.ID == "" {
		return nil, apperr.Upstream(errors.New("empty order id"), "invalid payment provider response")
	}

	if err := s.sessions.Create(ctx, &models.PaymentSession{
		ProviderOrderID: order.ID,
		Amount:          amount.Round(2),
		AmountMinor:     order.Amount,
		Currency:        order.Currency,
		Status:          models.PaymentSessionCreated,
	}); err != nil {
		return nil, errors.Wrap(err, "save payment session")
	}

	return &PaymentSessionInfo{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.cfg.KeyID,
	}, nil
}

// Verify checks the callback signature and records the payment on its
// session. A mismatch yields ErrSignatureMismatch.
func (s *PaymentService) Verify(ctx context.Context, orderID, paymentID, signature string) error {
	if err := s.CheckSignature(orderID, paymentID, signature); err != nil {
		return err
	}

	err := s.sessions.MarkVerified(ctx, orderID, paymentID, s.now())
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		s.lg.Warn("Verified payment for unknown session", zap.String("order_id", orderID))
	case err != nil:
		return errors.Wrap(err, "mark session verified")
	}
	return nil
}

// CheckSignature compares signature with hex(HMAC-SHA256(secret,
// orderID|paymentID)) in constant time. Without a secret nothing verifies.
func (s *PaymentService) CheckSignature(orderID, paymentID, signature string) error {
	if s.cfg.KeySecret == "" {
		return errGatewayNotConfigured
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return apperr.Validation("order_id, payment_id and signature are required")
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrSignatureMismatch
	}
	if !hmac.Equal(got, s.sign(orderID, paymentID)) {
		return ErrSignatureMismatch
	}
	return nil
}

func (s *PaymentService) sign(orderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, []byte(s.cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return mac.Sum(nil)
}

// Signature returns the hex signature the gateway sends for a payment.
func (s *PaymentService) Signature(orderID, paymentID string) string {
	return hex.EncodeToString(s.sign(orderID, paymentID))
}
