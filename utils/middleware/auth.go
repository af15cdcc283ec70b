package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/auth"
	"github.com/quirra-app/quirra-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authError carries the response message for a failed bearer validation
type authError struct {
	status  int
	message string
}

// validateBearer resolves the Authorization header to a verified user.
// Every failure mode maps to a single message so callers stay uniform.
func (m *AuthMiddleware) validateBearer(c *fiber.Ctx) (*model.User, *auth.Claims, *authError) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, &authError{fiber.StatusUnauthorized, "Missing authorization token"}
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, &authError{fiber.StatusUnauthorized, "Invalid authorization format"}
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			return nil, nil, &authError{fiber.StatusUnauthorized, "Token has expired"}
		}
		return nil, nil, &authError{fiber.StatusUnauthorized, "Invalid token"}
	}

	if claims.TokenType != "access" {
		return nil, nil, &authError{fiber.StatusUnauthorized, "Invalid token type"}
	}

	// Check if token is revoked (blacklisted)
	isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return nil, nil, &authError{fiber.StatusInternalServerError, "Failed to check token status"}
	}
	if isRevoked {
		return nil, nil, &authError{fiber.StatusUnauthorized, "Token has been revoked"}
	}

	// Load user and verify token version
	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, &authError{fiber.StatusUnauthorized, "User not found"}
		}
		return nil, nil, &authError{fiber.StatusInternalServerError, "Failed to load user"}
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, &authError{fiber.StatusUnauthorized, "Token has been invalidated"}
	}

	return &user, claims, nil
}

func storeUserLocals(c *fiber.Ctx, user *model.User, claims *auth.Claims) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, authErr := m.validateBearer(c)
		if authErr != nil {
			if authErr.status == fiber.StatusInternalServerError {
				return response.InternalServerError(c, authErr.message)
			}
			return response.Unauthorized(c, authErr.message)
		}

		storeUserLocals(c, user, claims)
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, authErr := m.validateBearer(c)
		if authErr != nil {
			return c.Next()
		}

		storeUserLocals(c, user, claims)
		return c.Next()
	}
}

// RequireAdmin is middleware that requires a valid token with an admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, authErr := m.validateBearer(c)
		if authErr != nil {
			if authErr.status == fiber.StatusInternalServerError {
				return response.InternalServerError(c, authErr.message)
			}
			return response.Unauthorized(c, authErr.message)
		}

		if claims.Role != "admin" {
			return response.Forbidden(c, "Admin access required")
		}

		storeUserLocals(c, user, claims)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims := c.Locals("claims")
	if claims == nil {
		return nil, false
	}
	claimsData, ok := claims.(*auth.Claims)
	return claimsData, ok
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti := c.Locals("token_jti")
	if jti == nil {
		return "", false
	}
	j, ok := jti.(string)
	return j, ok
}
