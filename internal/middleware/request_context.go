package middleware

import (
	"scannimart/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// RequestContext carries the request id set by fiber's requestid middleware
// into the user context, so service logs can be correlated with the access log.
func RequestContext(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			c.SetUserContext(log.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}
