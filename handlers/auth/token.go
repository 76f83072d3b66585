package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	authutil "github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/middleware"
	"github.com/starbooks/monitoring-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /api/v1/auth/refresh. The presented refresh
// token is revoked and a fresh pair is issued.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, "Refresh token is required")
	}

	ctx := c.UserContext()

	claims, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if errors.Is(err, authutil.ErrWrongTokenType) {
		return response.Unauthorized(c, "Invalid token type")
	}
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	isRevoked, err := h.revoked.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	user, err := h.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return response.Unauthorized(c, "User not found")
	}

	pair, err := h.jwtManager.GeneratePair(user.ID, user.Username, user.Role)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	if err := h.revoked.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		// the old token still expires on its own
		h.log.Warn("failed to revoke refresh token", zap.String("jti", claims.ID), zap.Error(err))
	}

	return response.Success(c, pair)
}

// LogoutRequest optionally carries the refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	ctx := c.UserContext()
	if err := h.revoked.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	var req LogoutRequest
	if len(c.Body()) > 0 && c.BodyParser(&req) == nil && req.RefreshToken != "" {
		if refresh, err := h.jwtManager.ValidateRefreshToken(req.RefreshToken); err == nil && refresh.UserID == claims.UserID {
			if err := h.revoked.RevokeToken(ctx, refresh.ID, refresh.ExpiresAt.Time); err != nil {
				h.log.Warn("failed to revoke refresh token on logout", zap.String("jti", refresh.ID), zap.Error(err))
			}
		}
	}

	h.log.Info("user logged out", zap.String("username", claims.Username))
	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
