package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/crypto"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// SecurityHandler manages security settings and user-supplied provider keys
type SecurityHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	// kdfSecret feeds the per-user encryption key derivation
	kdfSecret string
}

// NewSecurityHandler creates the security handler. kdfSecret must stay
// stable across deploys or stored provider keys become undecryptable.
func NewSecurityHandler(db *gorm.DB, kdfSecret string) *SecurityHandler {
	return &SecurityHandler{
		db:        db,
		validator: validation.NewValidator(),
		kdfSecret: kdfSecret,
	}
}

// GetSettings returns the user's security settings, creating defaults when
// the row is missing.
func (h *SecurityHandler) GetSettings(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var settings model.SecuritySetting
	if err := h.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		settings = model.SecuritySetting{
			UserID:             userID,
			LoginAlerts:        true,
			DataRetentionDays:  365,
			AllowMemoryStorage: true,
		}
		if err := h.db.Create(&settings).Error; err != nil {
			return response.InternalServerError(c, "Failed to load security settings")
		}
	}

	return response.Success(c, settings)
}

// UpdateSettingsRequest uses pointers so omitted fields keep their value
type UpdateSettingsRequest struct {
	TwoFactorEnabled   *bool `json:"two_factor_enabled,omitempty"`
	LoginAlerts        *bool `json:"login_alerts,omitempty"`
	DataRetentionDays  *int  `json:"data_retention_days,omitempty" validate:"omitempty,min=30,max=3650"`
	AllowMemoryStorage *bool `json:"allow_memory_storage,omitempty"`
}

// UpdateSettings applies partial changes to the user's security settings
func (h *SecurityHandler) UpdateSettings(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.TwoFactorEnabled != nil {
		updates["two_factor_enabled"] = *req.TwoFactorEnabled
	}
	if req.LoginAlerts != nil {
		updates["login_alerts"] = *req.LoginAlerts
	}
	if req.DataRetentionDays != nil {
		updates["data_retention_days"] = *req.DataRetentionDays
	}
	if req.AllowMemoryStorage != nil {
		updates["allow_memory_storage"] = *req.AllowMemoryStorage
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "No settings to update")
	}

	result := h.db.Model(&model.SecuritySetting{}).Where("user_id = ?", userID).Updates(updates)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to update security settings")
	}
	if result.RowsAffected == 0 {
		settings := model.SecuritySetting{UserID: userID, LoginAlerts: true, DataRetentionDays: 365, AllowMemoryStorage: true}
		if err := h.db.Create(&settings).Error; err != nil {
			return response.InternalServerError(c, "Failed to update security settings")
		}
		_ = h.db.Model(&settings).Updates(updates).Error
	}

	var settings model.SecuritySetting
	_ = h.db.Where("user_id = ?", userID).First(&settings).Error
	return response.SuccessWithMessage(c, "Security settings updated", settings)
}

// SetProviderKeyRequest stores a bring-your-own provider API key
type SetProviderKeyRequest struct {
	Provider string `json:"provider" validate:"required,oneof=openai openrouter huggingface"`
	APIKey   string `json:"api_key" validate:"required,min=8"`
}

// ProviderKeyResponse never exposes key material beyond the display hint
type ProviderKeyResponse struct {
	Provider string `json:"provider"`
	KeyHint  string `json:"key_hint"`
}

// SetProviderKey encrypts and stores a user's provider API key. The
// encryption key is derived from a server secret and the user's salt; the
// plaintext never touches the database.
func (h *SecurityHandler) SetProviderKey(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req SetProviderKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.APIKey = strings.TrimSpace(req.APIKey)
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	encKey := crypto.DeriveKey(h.kdfSecret, user.PasswordSalt)
	encrypted, nonce, err := crypto.EncryptProviderKey(req.APIKey, encKey)
	if err != nil {
		return response.InternalServerError(c, "Failed to encrypt provider key")
	}

	hint := req.APIKey
	if len(hint) > 4 {
		hint = hint[len(hint)-4:]
	}

	key := model.UserProviderKey{
		UserID:       user.ID,
		Provider:     req.Provider,
		EncryptedKey: encrypted,
		Nonce:        nonce,
		KeyHint:      "..." + hint,
	}

	// Replace any existing key for the same provider
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("user_id = ? AND provider = ?", user.ID, req.Provider).
			Delete(&model.UserProviderKey{}).Error; err != nil {
			return err
		}
		return tx.Create(&key).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to store provider key")
	}

	return response.Created(c, ProviderKeyResponse{Provider: key.Provider, KeyHint: key.KeyHint})
}

// ListProviderKeys returns which providers have stored keys
func (h *SecurityHandler) ListProviderKeys(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var keys []model.UserProviderKey
	if err := h.db.Where("user_id = ?", userID).Find(&keys).Error; err != nil {
		return response.InternalServerError(c, "Failed to load provider keys")
	}

	out := make([]ProviderKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, ProviderKeyResponse{Provider: k.Provider, KeyHint: k.KeyHint})
	}
	return response.Success(c, out)
}

// DeleteProviderKey removes a stored provider key
func (h *SecurityHandler) DeleteProviderKey(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	provider := c.Params("provider")
	result := h.db.Unscoped().
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&model.UserProviderKey{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete provider key")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "No key stored for this provider")
	}

	return response.NoContent(c)
}
