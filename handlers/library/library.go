package library

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// LibraryHandler manages saved prompts, conversation excerpts and notes
type LibraryHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewLibraryHandler creates the library handler
func NewLibraryHandler(db *gorm.DB) *LibraryHandler {
	return &LibraryHandler{db: db, validator: validation.NewValidator()}
}

// CreateRequest creates a library item
type CreateRequest struct {
	Kind    string   `json:"kind" validate:"required,oneof=prompt conversation note"`
	Title   string   `json:"title" validate:"required,min=1,max=255"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Pinned  bool     `json:"pinned,omitempty"`
}

func tagsToJSON(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Create saves a new library item
func (h *LibraryHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	tags, err := tagsToJSON(req.Tags)
	if err != nil {
		return response.BadRequest(c, "Invalid tags")
	}

	item := model.LibraryItem{
		UserID:  userID,
		Kind:    model.LibraryItemKind(req.Kind),
		Title:   validation.SanitizeString(req.Title),
		Content: req.Content,
		Tags:    tags,
		Pinned:  req.Pinned,
	}
	if err := h.db.Create(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to save library item")
	}
	return response.Created(c, item)
}

// List returns library items with optional ?kind= and ?pinned= filters
func (h *LibraryHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.LibraryItem{}).Where("user_id = ?", userID)
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if c.Query("pinned") == "true" {
		query = query.Where("pinned = true")
	}
	if search := c.Query("q"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count library items")
	}

	var items []model.LibraryItem
	err := query.Order("pinned DESC, updated_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&items).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load library items")
	}
	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// Get returns one library item
func (h *LibraryHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	itemID, err := c.ParamsInt("id")
	if err != nil || itemID <= 0 {
		return response.BadRequest(c, "Invalid item ID")
	}

	var item model.LibraryItem
	err = h.db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Library item not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load library item")
	}
	return response.Success(c, item)
}

// UpdateRequest applies partial changes to a library item
type UpdateRequest struct {
	Title   *string   `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Pinned  *bool     `json:"pinned,omitempty"`
}

// Update edits one library item
func (h *LibraryHandler) Update(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	itemID, err := c.ParamsInt("id")
	if err != nil || itemID <= 0 {
		return response.BadRequest(c, "Invalid item ID")
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = validation.SanitizeString(*req.Title)
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Tags != nil {
		tags, err := tagsToJSON(*req.Tags)
		if err != nil {
			return response.BadRequest(c, "Invalid tags")
		}
		updates["tags"] = tags
	}
	if req.Pinned != nil {
		updates["pinned"] = *req.Pinned
	}
	if len(updates) == 0 {
		return response.BadRequest(c, "Nothing to update")
	}

	result := h.db.Model(&model.LibraryItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Updates(updates)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to update library item")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Library item not found")
	}

	var item model.LibraryItem
	_ = h.db.First(&item, itemID).Error
	return response.Success(c, item)
}

// Delete removes one library item
func (h *LibraryHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	itemID, err := c.ParamsInt("id")
	if err != nil || itemID <= 0 {
		return response.BadRequest(c, "Invalid item ID")
	}

	result := h.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&model.LibraryItem{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete library item")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Library item not found")
	}
	return response.NoContent(c)
}
