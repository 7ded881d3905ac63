package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/middleware"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/services"
)

// OrderHandler manages checkout and customer order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemRequest struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
}

type createOrderRequest struct {
	Items             []orderItemRequest  `json:"items" validate:"required,min=1,dive"`
	Total             decimal.NullDecimal `json:"total" validate:"required,gt=0"`
	ShippingAddress   string              `json:"shipping_address"`
	PaymentMethod     string              `json:"payment_method"`
	CustomerName      string              `json:"customer_name"`
	CustomerEmail     string              `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone     string              `json:"customer_phone"`
	PaymentID         string              `json:"payment_id"`
	RazorpayOrderID   string              `json:"razorpay_order_id"`
	RazorpaySignature string              `json:"razorpay_signature"`
	CouponID          *uuid.UUID          `json:"coupon_id"`
}

type orderPlacedResponse struct {
	ID             uuid.UUID          `json:"id"`
	Status         models.OrderStatus `json:"status"`
	Total          float64            `json:"total"`
	Message        string             `json:"message"`
	AccessToken    string             `json:"access_token,omitempty"`
	TokenType      string             `json:"token_type,omitempty"`
	User           *userSummary       `json:"user,omitempty"`
	AccountCreated bool               `json:"account_created,omitempty"`
}

// CreateOrder places an order for a signed-in user, a known email, or a
// guest. A new account is provisioned for an unknown email and signed in.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	confirmation, err := h.orders.PlaceOrder(c.UserContext(), services.PlaceOrderRequest{
		Items:            items,
		Total:            req.Total.Decimal,
		ShippingAddress:  req.ShippingAddress,
		PaymentMethod:    req.PaymentMethod,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		PaymentID:        req.PaymentID,
		PaymentOrderID:   req.RazorpayOrderID,
		PaymentSignature: req.RazorpaySignature,
		CouponID:         req.CouponID,
		Token:            middleware.BearerToken(c),
	})
	if err != nil {
		return err
	}

	order := confirmation.Order
	resp := orderPlacedResponse{
		ID:      order.ID,
		Status:  order.Status,
		Total:   money(order.Total),
		Message: "Order placed successfully!",
	}
	if s := confirmation.Session; s != nil {
		user := newUserSummary(s.User)
		resp.AccessToken = s.Token
		resp.TokenType = "bearer"
		resp.User = &user
		resp.AccountCreated = confirmation.AccountCreated
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListOrders returns the authenticated user's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Token is missing")
	}

	orders, err := h.orders.ListForCustomer(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(newOrderList(orders))
}

// GetOrder returns a single order. Anonymous callers may read it for the
// confirmation page; a signed-in customer only sees their own.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseID(c, "Order")
	if err != nil {
		return err
	}

	caller, _ := middleware.CurrentUser(c)
	order, err := h.orders.Get(c.UserContext(), id, caller)
	if err != nil {
		return err
	}
	return c.JSON(newOrderResponse(order))
}
