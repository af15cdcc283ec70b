package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/model"
	authutil "github.com/quirra-app/quirra-api/utils/auth"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// ProfileResponse bundles the account and its editable profile
type ProfileResponse struct {
	User    UserResponse       `json:"user"`
	Profile *model.UserProfile `json:"profile"`
}

// GetProfile returns the authenticated user's account and profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var profile model.UserProfile
	if err := h.db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		// Older accounts may predate the profile row; create it lazily
		profile = model.UserProfile{UserID: user.ID, DisplayName: user.Name}
		_ = h.db.Create(&profile).Error
	}

	return response.Success(c, ProfileResponse{
		User:    toUserResponse(user),
		Profile: &profile,
	})
}

// UpdateProfileRequest carries the editable account and profile fields.
// Pointer fields distinguish "not sent" from "set to empty".
type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	DisplayName    *string `json:"display_name,omitempty" validate:"omitempty,max=100"`
	Bio            *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	AvatarURL      *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
	Locale         *string `json:"locale,omitempty" validate:"omitempty,max=20"`
	Timezone       *string `json:"timezone,omitempty" validate:"omitempty,max=50"`
	PreferredModel *string `json:"preferred_model,omitempty" validate:"omitempty,max=100"`
}

// UpdateProfile applies partial updates to the account and profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Name != nil {
		name := validation.SanitizeString(*req.Name)
		if err := h.db.Model(&model.User{}).Where("id = ?", user.ID).Update("name", name).Error; err != nil {
			return response.InternalServerError(c, "Failed to update account")
		}
		user.Name = name
	}

	profileUpdates := map[string]interface{}{}
	if req.DisplayName != nil {
		profileUpdates["display_name"] = validation.SanitizeString(*req.DisplayName)
	}
	if req.Bio != nil {
		profileUpdates["bio"] = validation.SanitizeString(*req.Bio)
	}
	if req.AvatarURL != nil {
		profileUpdates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if req.Locale != nil {
		profileUpdates["locale"] = strings.TrimSpace(*req.Locale)
	}
	if req.Timezone != nil {
		profileUpdates["timezone"] = strings.TrimSpace(*req.Timezone)
	}
	if req.PreferredModel != nil {
		profileUpdates["preferred_model"] = strings.TrimSpace(*req.PreferredModel)
	}

	if len(profileUpdates) > 0 {
		err := h.db.Model(&model.UserProfile{}).
			Where("user_id = ?", user.ID).
			Updates(profileUpdates).Error
		if err != nil {
			return response.InternalServerError(c, "Failed to update profile")
		}
	}

	var profile model.UserProfile
	_ = h.db.Where("user_id = ?", user.ID).First(&profile).Error

	return response.SuccessWithMessage(c, "Profile updated", ProfileResponse{
		User:    toUserResponse(user),
		Profile: &profile,
	})
}

// ChangePasswordRequest carries a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword verifies the current password, stores the new hash, and
// invalidates every outstanding token.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return response.Unauthorized(c, "Current password is incorrect")
	}
	if err := authutil.CheckPasswordStrength(req.NewPassword); err != nil {
		return response.BadRequest(c, err.Error())
	}

	newHash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", user.ID).Update("password_hash", newHash).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	// Force re-authentication everywhere
	if err := h.blacklistService.RevokeAllUserTokens(c.Context(), user.ID); err != nil {
		return response.InternalServerError(c, "Failed to revoke existing sessions")
	}

	return response.SuccessWithMessage(c, "Password updated, please sign in again", nil)
}
