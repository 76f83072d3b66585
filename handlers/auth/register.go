package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	authutil "github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/middleware"
	"github.com/starbooks/monitoring-api/utils/response"
	"github.com/starbooks/monitoring-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	store                database.Storage
	jwtManager           *authutil.JWTManager
	revoked              *authutil.RevocationList
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
	log                  *zap.Logger
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(store database.Storage, jwtManager *authutil.JWTManager, revoked *authutil.RevocationList, bruteForceProtection *middleware.BruteForceProtection, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:                store,
		jwtManager:           jwtManager,
		revoked:              revoked,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
		log:                  log,
	}
}

// RegisterRequest represents an account creation request made by an admin
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin coordinator"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Register handles POST /api/v1/auth/register. Only admins create accounts.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.FieldErrors(c, h.validator.FormatValidationErrors(err))
	}
	if ok, problems := validation.ValidatePassword(req.Password); !ok {
		return response.ErrorWithDetails(c, fiber.StatusUnprocessableEntity,
			"Password does not meet requirements", "VALIDATION_ERROR", strings.Join(problems, "; "))
	}

	if req.Role == "" {
		req.Role = model.RoleCoordinator
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	user := model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
	}
	if err := h.store.CreateUser(c.UserContext(), &user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return response.Conflict(c, "Username is already taken")
		}
		return response.InternalServerError(c, "Failed to create user")
	}

	createdBy, _ := middleware.GetUsername(c)
	h.log.Info("user registered",
		zap.String("username", user.Username),
		zap.String("role", user.Role),
		zap.String("created_by", createdBy),
	)
	return response.Created(c, toUserResponse(&user))
}
