package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuditLog records who performed a write and how it ended. It must run after
// the auth middleware so the user locals are populated.
func AuditLog(log *zap.Logger, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		var resourceID uint64
		if id := c.Params("id"); id != "" {
			resourceID, _ = strconv.ParseUint(id, 10, 32)
		}
		userID, _ := GetUserID(c)
		username, _ := GetUsername(c)

		log.Info("audit",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Uint64("resource_id", resourceID),
			zap.Uint("user_id", userID),
			zap.String("username", username),
			zap.Int("status", c.Response().StatusCode()),
			zap.String("ip", c.IP()),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		)
		return err
	}
}
