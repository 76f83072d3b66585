package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/response"
)

// Context locals set by the auth middleware
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalUserRole = "user_role"
	LocalClaims   = "claims"
	LocalTokenJTI = "token_jti"
)

// UserLookup loads the user a token was issued to
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// AuthMiddleware handles JWT authentication. Tokens are verified locally
// against the signing secret; revoked token ids are rejected.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	revoked    *auth.RevocationList
	users      UserLookup
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, revoked *auth.RevocationList, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		revoked:    revoked,
		users:      users,
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", "Missing authorization token"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format"
	}
	return parts[1], ""
}

// authenticate validates the request token and stores its claims in locals.
// It writes the error response itself and reports whether to continue.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (bool, error) {
	tokenString, problem := bearerToken(c)
	if problem != "" {
		return false, response.Unauthorized(c, problem)
	}

	claims, err := m.jwtManager.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return false, response.Unauthorized(c, "Token has expired")
		}
		return false, response.Unauthorized(c, "Invalid token")
	}

	if claims.TokenType != auth.TokenTypeAccess {
		return false, response.Unauthorized(c, "Invalid token type")
	}

	if m.revoked != nil {
		isRevoked, err := m.revoked.IsTokenRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return false, response.InternalServerError(c, "Failed to check token status")
		}
		if isRevoked {
			return false, response.Unauthorized(c, "Token has been revoked")
		}
	}

	// a deleted account invalidates its outstanding tokens
	if m.users != nil {
		if _, err := m.users.GetUser(c.UserContext(), claims.UserID); err != nil {
			return false, response.Unauthorized(c, "User not found")
		}
	}

	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalUserRole, claims.Role)
	c.Locals(LocalClaims, claims)
	c.Locals(LocalTokenJTI, claims.ID)
	return true, nil
}

// Required is middleware that requires a valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := m.authenticate(c)
		if !ok {
			return err
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires one of roles. It must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin validates the token inline and checks for the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := m.authenticate(c)
		if !ok {
			return err
		}
		if role, _ := GetUserRole(c); role != model.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok
}

// GetUsername extracts the username from context
func GetUsername(c *fiber.Ctx) (string, bool) {
	name, ok := c.Locals(LocalUsername).(string)
	return name, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals(LocalUserRole).(string)
	return role, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*auth.Claims)
	return claims, ok
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti, ok := c.Locals(LocalTokenJTI).(string)
	return jti, ok
}
