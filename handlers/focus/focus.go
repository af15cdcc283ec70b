package focus

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// FocusHandler manages the user's one-goal-per-day daily focus
type FocusHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewFocusHandler creates the focus handler
func NewFocusHandler(db *gorm.DB) *FocusHandler {
	return &FocusHandler{db: db, validator: validation.NewValidator()}
}

// focusDate resolves the requested day, defaulting to today in UTC
func focusDate(c *fiber.Ctx) (time.Time, error) {
	if d := c.Query("date"); d != "" {
		return time.Parse("2006-01-02", d)
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

// GetToday returns the focus for today (or ?date=YYYY-MM-DD)
func (h *FocusHandler) GetToday(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	date, err := focusDate(c)
	if err != nil {
		return response.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
	}

	var focus model.DailyFocus
	err = h.db.Where("user_id = ? AND focus_date = ?", userID, date).First(&focus).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "No focus set for this day")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load focus")
	}
	return response.Success(c, focus)
}

// SetRequest sets or updates the day's goal
type SetRequest struct {
	Goal      string `json:"goal" validate:"required,min=1,max=500"`
	Completed *bool  `json:"completed,omitempty"`
}

// SetToday upserts the focus for today (or ?date=YYYY-MM-DD). One focus
// per user per day; setting again replaces the goal.
func (h *FocusHandler) SetToday(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	date, err := focusDate(c)
	if err != nil {
		return response.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
	}

	var req SetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	focus := model.DailyFocus{
		UserID:    userID,
		FocusDate: date,
		Goal:      validation.SanitizeString(req.Goal),
	}
	if req.Completed != nil {
		focus.Completed = *req.Completed
	}

	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "focus_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"goal", "completed", "updated_at"}),
	}).Create(&focus).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to save focus")
	}

	_ = h.db.Where("user_id = ? AND focus_date = ?", userID, date).First(&focus).Error
	return response.Success(c, focus)
}

// History lists recent daily focuses, newest first
func (h *FocusHandler) History(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	limit := c.QueryInt("limit", 30)
	if limit < 1 || limit > 90 {
		limit = 30
	}

	var focuses []model.DailyFocus
	err := h.db.Where("user_id = ?", userID).
		Order("focus_date DESC").
		Limit(limit).
		Find(&focuses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load focus history")
	}
	return response.Success(c, focuses)
}
