package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// ChatHandler exposes chat sessions, messages and message analysis
type ChatHandler struct {
	chat      *services.ChatService
	analysis  *services.AnalysisService
	validator *validation.Validator
}

// NewChatHandler creates the chat handler
func NewChatHandler(chat *services.ChatService, analysis *services.AnalysisService) *ChatHandler {
	return &ChatHandler{chat: chat, analysis: analysis, validator: validation.NewValidator()}
}

// CreateSessionRequest starts a conversation
type CreateSessionRequest struct {
	Title string `json:"title,omitempty" validate:"omitempty,max=255"`
}

// CreateSession starts a new conversation
func (h *ChatHandler) CreateSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.chat.CreateSession(c.Context(), userID, req.Title)
	if err != nil {
		return response.InternalServerError(c, "Failed to create chat session")
	}
	return response.Created(c, session)
}

// ListSessions returns the user's conversations
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}

	sessions, total, err := h.chat.ListSessions(c.Context(), userID, c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load chat sessions")
	}
	return response.Paginated(c, sessions, response.CalculatePagination(page, limit, total))
}

// GetSession returns one conversation
func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	session, err := h.chat.GetSession(c.Context(), userID, uint(sessionID))
	if errors.Is(err, services.ErrSessionNotFound) {
		return response.NotFound(c, "Chat session not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load chat session")
	}
	return response.Success(c, session)
}

// UpdateSessionRequest renames or archives a conversation
type UpdateSessionRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
}

// UpdateSession renames or archives a conversation
func (h *ChatHandler) UpdateSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.chat.UpdateSession(c.Context(), userID, uint(sessionID), req.Title, req.Status)
	if errors.Is(err, services.ErrSessionNotFound) {
		return response.NotFound(c, "Chat session not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update chat session")
	}
	return response.Success(c, session)
}

// DeleteSession removes a conversation and its messages
func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	err = h.chat.DeleteSession(c.Context(), userID, uint(sessionID))
	if errors.Is(err, services.ErrSessionNotFound) {
		return response.NotFound(c, "Chat session not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete chat session")
	}
	return response.NoContent(c)
}
