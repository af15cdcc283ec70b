package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/model"
	authutil "github.com/quirra-app/quirra-api/utils/auth"
	"github.com/quirra-app/quirra-api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Optional device registration alongside login
	DeviceName     string `json:"device_name,omitempty"`
	DevicePlatform string `json:"device_platform,omitempty" validate:"omitempty,oneof=web ios android desktop"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	// Clear failed attempts on successful login
	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	refreshToken, refreshJTI, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	deviceID := h.upsertDevice(c, user.ID, req.DeviceName, req.DevicePlatform)
	h.createLoginSession(c, user.ID, refreshJTI, deviceID)

	return response.Success(c, TokenPairResponse{
		User:         toUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessTokenTTL().Seconds()),
	})
}

// upsertDevice registers or touches the device named in the login request.
// Device tracking is best effort and never blocks the login.
func (h *AuthHandler) upsertDevice(c *fiber.Ctx, userID uint, name, platform string) *uint {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if platform == "" {
		platform = "web"
	}

	now := time.Now()
	var device model.Device
	err := h.db.Where("user_id = ? AND name = ?", userID, name).First(&device).Error
	if err == nil {
		_ = h.db.Model(&device).Updates(map[string]interface{}{
			"platform":     platform,
			"last_seen_at": &now,
		}).Error
		return &device.ID
	}

	device = model.Device{
		UserID:     userID,
		Name:       name,
		Platform:   platform,
		LastSeenAt: &now,
	}
	if err := h.db.Create(&device).Error; err != nil {
		return nil
	}
	return &device.ID
}
