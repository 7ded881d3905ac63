package handlers

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/example/vurel/internal/apperr"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the API and its database are reachable.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		return apperr.Transient(errors.Wrap(err, "ping database"), "database unavailable")
	}
	return c.JSON(fiber.Map{"status": "healthy", "message": "API is running"})
}
