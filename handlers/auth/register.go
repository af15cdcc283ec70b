package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	authutil "github.com/quirra-app/quirra-api/utils/auth"
	"github.com/quirra-app/quirra-api/utils/crypto"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenPairResponse carries freshly issued tokens
type TokenPairResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = validation.SanitizeString(req.Name)

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}
	if err := authutil.CheckPasswordStrength(req.Password); err != nil {
		return response.BadRequest(c, err.Error())
	}

	// Check for an existing account
	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "An account with this email already exists")
	}

	passwordHash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return response.InternalServerError(c, "Failed to initialize account keys")
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		PasswordSalt: salt,
		Name:         req.Name,
		Role:         "member",
	}

	// Every account starts with an empty profile and default security settings
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := model.UserProfile{UserID: user.ID, DisplayName: user.Name}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		settings := model.SecuritySetting{UserID: user.ID, LoginAlerts: true, DataRetentionDays: 365, AllowMemoryStorage: true}
		return tx.Create(&settings).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	refreshToken, refreshJTI, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	h.createLoginSession(c, user.ID, refreshJTI, nil)

	return response.Created(c, TokenPairResponse{
		User:         toUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessTokenTTL().Seconds()),
	})
}

// createLoginSession records an authenticated session for the refresh token.
// Failures are non-fatal; the token itself remains valid.
func (h *AuthHandler) createLoginSession(c *fiber.Ctx, userID uint, refreshJTI string, deviceID *uint) {
	session := model.LoginSession{
		UserID:     userID,
		DeviceID:   deviceID,
		IP:         c.IP(),
		UserAgent:  string(c.Request().Header.UserAgent()),
		RefreshJTI: refreshJTI,
		ExpiresAt:  time.Now().Add(h.jwtManager.RefreshTokenTTL()),
	}
	_ = h.db.Create(&session).Error
}
