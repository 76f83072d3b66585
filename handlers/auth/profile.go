package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/utils/middleware"
	"github.com/starbooks/monitoring-api/utils/response"
)

// GetProfile handles GET /api/v1/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	user, err := h.store.GetUser(c.UserContext(), userID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, toUserResponse(user))
}
