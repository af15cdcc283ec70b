package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshToken rotates a refresh token into a new token pair. The old
// refresh token is blacklisted so it cannot be replayed.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Invalid token type")
	}

	isRevoked, err := h.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	newAccessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	newRefreshToken, newRefreshJTI, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	// Blacklist the spent refresh token; it expires naturally if this fails
	expiresAt, _ := h.jwtManager.GetTokenExpiry(req.RefreshToken)
	_ = h.blacklistService.RevokeToken(c.Context(), claims.ID, user.ID, expiresAt, "token_refresh")

	// Move the login session onto the new JTI
	_ = h.db.Model(&model.LoginSession{}).
		Where("user_id = ? AND refresh_jti = ? AND revoked_at IS NULL", user.ID, claims.ID).
		Updates(map[string]interface{}{
			"refresh_jti": newRefreshJTI,
			"expires_at":  time.Now().Add(h.jwtManager.RefreshTokenTTL()),
		}).Error

	return response.Success(c, RefreshResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int(h.jwtManager.AccessTokenTTL().Seconds()),
	})
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Logout blacklists the caller's access token, and the refresh token when
// one is supplied, then closes the matching login session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req LogoutRequest
	_ = c.BodyParser(&req)

	if jti, ok := middleware.GetTokenJTI(c); ok {
		claims, _ := middleware.GetClaims(c)
		if claims != nil && claims.ExpiresAt != nil {
			_ = h.blacklistService.RevokeToken(c.Context(), jti, userID, claims.ExpiresAt.Time, "logout")
		}
	}

	if req.RefreshToken != "" {
		if claims, err := h.jwtManager.ExtractClaims(req.RefreshToken); err == nil && claims.TokenType == "refresh" {
			expiresAt, _ := h.jwtManager.GetTokenExpiry(req.RefreshToken)
			_ = h.blacklistService.RevokeToken(c.Context(), claims.ID, userID, expiresAt, "logout")

			now := time.Now()
			_ = h.db.Model(&model.LoginSession{}).
				Where("user_id = ? AND refresh_jti = ? AND revoked_at IS NULL", userID, claims.ID).
				Update("revoked_at", &now).Error
		}
	}

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// LogoutAll invalidates every token the user holds by bumping the token
// version, then revokes all open login sessions.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	if err := h.blacklistService.RevokeAllUserTokens(c.Context(), userID); err != nil {
		return response.InternalServerError(c, "Failed to revoke tokens")
	}

	now := time.Now()
	_ = h.db.Model(&model.LoginSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &now).Error

	return response.SuccessWithMessage(c, "All sessions logged out", nil)
}
