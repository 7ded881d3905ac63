package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/services"
)

// PaymentHandler exposes the Razorpay checkout endpoints.
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type paymentSessionResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// CreateOrder opens a gateway order for the amount in major units.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	info, err := h.payments.OpenSession(c.UserContext(), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(paymentSessionResponse{
		OrderID:  info.OrderID,
		Amount:   info.Amount,
		Currency: info.Currency,
		KeyID:    info.KeyID,
	})
}

// verifyPaymentRequest accepts both the checkout widget's razorpay_* names
// and the short names.
type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"order_id"`
	PaymentID         string `json:"payment_id"`
	Signature         string `json:"signature"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Verify checks the payment callback signature.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	orderID := firstNonEmpty(req.RazorpayOrderID, req.OrderID)
	paymentID := firstNonEmpty(req.RazorpayPaymentID, req.PaymentID)
	signature := firstNonEmpty(req.RazorpaySignature, req.Signature)

	err := h.payments.Verify(c.UserContext(), orderID, paymentID, signature)
	switch {
	case errors.Is(err, services.ErrSignatureMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"verified": false,
			"detail":   "Invalid signature",
		})
	case err != nil:
		return err
	}
	return c.JSON(fiber.Map{"verified": true, "payment_id": paymentID})
}
