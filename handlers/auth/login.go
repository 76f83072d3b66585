package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	authutil "github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User UserResponse `json:"user"`
	*authutil.TokenPair
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, "Username and password are required")
	}

	ip := c.IP()
	ctx := c.UserContext()

	user, err := h.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return response.InternalServerError(c, "Failed to load user")
		}
		h.recordFailure(c, ip, req.Username)
		return response.Unauthorized(c, "Invalid username or password")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.recordFailure(c, ip, req.Username)
		return response.Unauthorized(c, "Invalid username or password")
	}

	if h.bruteForceProtection != nil {
		_ = h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
	}

	pair, err := h.jwtManager.GeneratePair(user.ID, user.Username, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	if err := h.store.UpdateLastLogin(ctx, user.ID); err != nil {
		h.log.Warn("failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	h.log.Info("user logged in", zap.String("username", user.Username), zap.String("ip", ip))
	return response.Success(c, LoginResponse{User: toUserResponse(user), TokenPair: pair})
}

func (h *AuthHandler) recordFailure(c *fiber.Ctx, ip, username string) {
	h.log.Warn("failed login", zap.String("username", username), zap.String("ip", ip))
	if h.bruteForceProtection != nil {
		_ = h.bruteForceProtection.RecordFailedAttempt(c, ip)
	}
}
