package devices

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// DeviceHandler manages the user's registered devices
type DeviceHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewDeviceHandler creates the device handler
func NewDeviceHandler(db *gorm.DB) *DeviceHandler {
	return &DeviceHandler{db: db, validator: validation.NewValidator()}
}

// List returns all of the user's devices, most recently seen first
func (h *DeviceHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var devices []model.Device
	err := h.db.Where("user_id = ?", userID).
		Order("last_seen_at DESC NULLS LAST, created_at DESC").
		Find(&devices).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load devices")
	}
	return response.Success(c, devices)
}

// RegisterRequest describes a device being registered explicitly,
// outside of the implicit registration done at login
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Platform string `json:"platform" validate:"required,oneof=web ios android desktop"`
}

// Register adds a device to the user's account
func (h *DeviceHandler) Register(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	device := model.Device{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Platform: req.Platform,
	}
	if err := h.db.Create(&device).Error; err != nil {
		return response.InternalServerError(c, "Failed to register device")
	}
	return response.Created(c, device)
}

// UpdateRequest renames a device or toggles its trusted flag
type UpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Trusted *bool   `json:"trusted,omitempty"`
}

// Update renames or trusts one of the user's devices
func (h *DeviceHandler) Update(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	deviceID, err := c.ParamsInt("id")
	if err != nil || deviceID <= 0 {
		return response.BadRequest(c, "Invalid device ID")
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Trusted != nil {
		updates["trusted"] = *req.Trusted
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	result := h.db.Model(&model.Device{}).
		Where("id = ? AND user_id = ?", deviceID, userID).
		Updates(updates)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to update device")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Device not found")
	}

	var device model.Device
	_ = h.db.First(&device, deviceID).Error
	return response.Success(c, device)
}

// Delete removes a device and revokes its open login sessions
func (h *DeviceHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	deviceID, err := c.ParamsInt("id")
	if err != nil || deviceID <= 0 {
		return response.BadRequest(c, "Invalid device ID")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", deviceID, userID).Delete(&model.Device{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.LoginSession{}).
			Where("user_id = ? AND device_id = ? AND revoked_at IS NULL", userID, deviceID).
			Update("revoked_at", gorm.Expr("NOW()")).Error
	})
	if err == gorm.ErrRecordNotFound {
		return response.NotFound(c, "Device not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete device")
	}

	return response.NoContent(c)
}
