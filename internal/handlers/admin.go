package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/services"
	"github.com/example/vurel/internal/store"
	"github.com/example/vurel/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	dashboard *services.DashboardService
	orders    *services.OrderService
	customers *services.CustomerService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(dashboard *services.DashboardService, orders *services.OrderService, customers *services.CustomerService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, orders: orders, customers: customers}
}

type pagination struct {
	CurrentPage  int   `json:"current_page"`
	ItemsPerPage int   `json:"items_per_page"`
	TotalItems   int64 `json:"total_items"`
}

type pagedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination pagination `json:"pagination"`
}

func newPaged[T any](data []T, pg utils.Pagination, total int64) pagedResponse[T] {
	return pagedResponse[T]{
		Data: data,
		Pagination: pagination{
			CurrentPage:  pg.Page,
			ItemsPerPage: pg.Limit,
			TotalItems:   total,
		},
	}
}

type recentOrder struct {
	ID       uuid.UUID          `json:"id"`
	Customer string             `json:"customer"`
	Email    string             `json:"email"`
	Total    float64            `json:"total"`
	Status   models.OrderStatus `json:"status"`
}

type dashboardResponse struct {
	TotalRevenue   float64       `json:"total_revenue"`
	TotalOrders    int64         `json:"total_orders"`
	TotalProducts  int64         `json:"total_products"`
	TotalCustomers int64         `json:"total_customers"`
	RecentOrders   []recentOrder `json:"recent_orders"`
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.dashboard.Stats(c.UserContext())
	if err != nil {
		return err
	}

	recent := make([]recentOrder, 0, len(stats.RecentOrders))
	for _, o := range stats.RecentOrders {
		recent = append(recent, recentOrder{
			ID:       o.ID,
			Customer: customerName(o.CustomerName),
			Email:    o.CustomerEmail,
			Total:    money(o.Total),
			Status:   o.Status,
		})
	}

	return c.JSON(dashboardResponse{
		TotalRevenue:   money(stats.TotalRevenue),
		TotalOrders:    stats.TotalOrders,
		TotalProducts:  stats.TotalProducts,
		TotalCustomers: stats.TotalCustomers,
		RecentOrders:   recent,
	})
}

type transactionResponse struct {
	OrderID       uuid.UUID          `json:"order_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	Amount        float64            `json:"amount"`
	PaymentMethod string             `json:"payment_method"`
	PaymentID     string             `json:"payment_id"`
	Status        models.OrderStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Transactions lists orders as payment records, newest first.
func (h *AdminHandler) Transactions(c *fiber.Ctx) error {
	orders, _, err := h.orders.ListAll(c.UserContext(), store.OrderFilter{})
	if err != nil {
		return err
	}

	out := make([]transactionResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, transactionResponse{
			OrderID:       o.ID,
			CustomerName:  customerName(o.CustomerName),
			CustomerEmail: o.CustomerEmail,
			CustomerPhone: o.CustomerPhone,
			Amount:        money(o.Total),
			PaymentMethod: o.PaymentMethod,
			PaymentID:     o.PaymentID,
			Status:        o.Status,
			CreatedAt:     o.CreatedAt,
		})
	}
	return c.JSON(out)
}

// ListOrders pages all orders, optionally filtered by status.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	f := store.OrderFilter{Limit: pg.Limit, Offset: pg.Offset}
	if v := c.Query("status"); v != "" {
		status, ok := services.ParseOrderStatus(v)
		if !ok {
			return apperr.Validation("Invalid status: " + v)
		}
		f.Status = status
	}

	orders, total, err := h.orders.ListAll(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(newPaged(newOrderList(orders), pg, total))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to a new status.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "Order")
	if err != nil {
		return err
	}

	var req updateOrderStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(newOrderResponse(order))
}

// ListCustomers pages non-admin accounts.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	users, total, err := h.customers.List(c.UserContext(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	out := make([]profileResponse, 0, len(users))
	for i := range users {
		out = append(out, newProfileResponse(&users[i]))
	}
	return c.JSON(newPaged(out, pg, total))
}

// GetCustomer returns one account.
func (h *AdminHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := parseID(c, "Customer")
	if err != nil {
		return err
	}

	user, err := h.customers.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newProfileResponse(user))
}

// CustomerOrders returns the orders linked to an account.
func (h *AdminHandler) CustomerOrders(c *fiber.Ctx) error {
	id, err := parseID(c, "Customer")
	if err != nil {
		return err
	}

	orders, err := h.customers.Orders(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newOrderList(orders))
}

// CustomerAddresses returns the shipping addresses an account has used.
func (h *AdminHandler) CustomerAddresses(c *fiber.Ctx) error {
	id, err := parseID(c, "Customer")
	if err != nil {
		return err
	}

	addresses, err := h.customers.Addresses(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(addresses)
}

func customerName(name string) string {
	if name == "" {
		return "Guest"
	}
	return name
}
