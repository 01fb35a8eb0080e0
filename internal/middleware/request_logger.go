package middleware

import (
	"cybertronic/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

// RequestLogger stores a logger tagged with the request id in the request context.
// An incoming X-Request-ID is reused.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)

		reqLogger := logger.With(
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		c.SetUserContext(logging.ContextWithLogger(c.UserContext(), reqLogger))
		return c.Next()
	}
}
