package middleware

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/apperr"
)

// ErrorHandler renders every error as {"detail": "..."}. A *fiber.Error keeps
// its status code, other errors are mapped by their apperr kind.
func ErrorHandler(lg *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"detail": fe.Message})
		}

		kind := apperr.KindOf(err)
		status := apperr.HTTPStatus(kind)
		if status >= fiber.StatusInternalServerError {
			lg.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Stringer("kind", kind),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(fiber.Map{"detail": apperr.Message(err)})
	}
}
