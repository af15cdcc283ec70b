package moods

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// MoodHandler manages mood check-ins
type MoodHandler struct {
	db        *gorm.DB
	analysis  *services.AnalysisService
	validator *validation.Validator
}

// NewMoodHandler creates the mood handler
func NewMoodHandler(db *gorm.DB, analysis *services.AnalysisService) *MoodHandler {
	return &MoodHandler{db: db, analysis: analysis, validator: validation.NewValidator()}
}

// CreateRequest is one mood check-in
type CreateRequest struct {
	Mood     string     `json:"mood" validate:"required,min=1,max=50"`
	Note     string     `json:"note,omitempty" validate:"omitempty,max=2000"`
	LoggedAt *time.Time `json:"logged_at,omitempty"`
}

// Create logs a mood. When a note is attached, it is run through message
// analysis to enrich the entry with sentiment and emotion data; analysis
// failures fall back to neutral values and never block the check-in.
func (h *MoodHandler) Create(c *fiber.Ctx) error {
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

	loggedAt := time.Now()
	if req.LoggedAt != nil {
		loggedAt = *req.LoggedAt
	}

	entry := model.MoodLog{
		UserID:         userID,
		Mood:           validation.SanitizeString(req.Mood),
		Note:           validation.SanitizeString(req.Note),
		SentimentLabel: "neutral",
		LoggedAt:       loggedAt,
	}

	if entry.Note != "" {
		analysis := h.analysis.AnalyzeOrDefault(c.Context(), entry.Note)
		entry.SentimentScore = analysis.SentimentScore
		entry.SentimentLabel = analysis.SentimentLabel
		entry.DominantEmotion = analysis.DominantEmotion
	}

	if err := h.db.Create(&entry).Error; err != nil {
		return response.InternalServerError(c, "Failed to save mood")
	}
	return response.Created(c, entry)
}

// List returns mood entries, optionally bounded by ?from= and ?to= dates
func (h *MoodHandler) List(c *fiber.Ctx) error {
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

	query := h.db.Model(&model.MoodLog{}).Where("user_id = ?", userID)
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("logged_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("logged_at < ?", t.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count moods")
	}

	var entries []model.MoodLog
	err := query.Order("logged_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&entries).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load moods")
	}

	return response.Paginated(c, entries, response.CalculatePagination(page, limit, total))
}

// Delete removes one mood entry
func (h *MoodHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	moodID, err := c.ParamsInt("id")
	if err != nil || moodID <= 0 {
		return response.BadRequest(c, "Invalid mood ID")
	}

	result := h.db.Where("id = ? AND user_id = ?", moodID, userID).Delete(&model.MoodLog{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete mood")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Mood entry not found")
	}
	return response.NoContent(c)
}
