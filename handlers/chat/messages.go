package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/services/llm"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
)

// SendMessageRequest is one user turn
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// SendMessage stores the user's turn and returns the assistant reply with
// the message analysis attached.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.chat.SendMessage(c.Context(), userID, uint(sessionID), req.Content)
	if err != nil {
		return mapChatError(c, err)
	}
	return response.Created(c, result)
}

// ListMessages returns a conversation's turns oldest first
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}

	messages, total, err := h.chat.ListMessages(c.Context(), userID, uint(sessionID), limit, (page-1)*limit)
	if errors.Is(err, services.ErrSessionNotFound) {
		return response.NotFound(c, "Chat session not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load messages")
	}
	return response.Paginated(c, messages, response.CalculatePagination(page, limit, total))
}

// EditMessageRequest replaces a user message's content
type EditMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// EditMessage updates a user message. The previous content is preserved in
// the edit history.
func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	messageID, err := c.ParamsInt("id")
	if err != nil || messageID <= 0 {
		return response.BadRequest(c, "Invalid message ID")
	}

	var req EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	msg, err := h.chat.EditMessage(c.Context(), userID, uint(messageID), req.Content)
	if errors.Is(err, services.ErrMessageNotFound) {
		return response.NotFound(c, "Message not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to edit message")
	}
	return response.Success(c, msg)
}

// ListEdits returns a message's edit history, newest first
func (h *ChatHandler) ListEdits(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	messageID, err := c.ParamsInt("id")
	if err != nil || messageID <= 0 {
		return response.BadRequest(c, "Invalid message ID")
	}

	edits, err := h.chat.ListEdits(c.Context(), userID, uint(messageID))
	if errors.Is(err, services.ErrMessageNotFound) {
		return response.NotFound(c, "Message not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load edit history")
	}
	return response.Success(c, edits)
}

// AnalyzeRequest runs message analysis without storing anything
type AnalyzeRequest struct {
	Message string `json:"message" validate:"required"`
}

// Analyze classifies a message. The result is transient and is never
// persisted; callers that want a guaranteed answer should handle the
// provider error statuses.
func (h *ChatHandler) Analyze(c *fiber.Ctx) error {
	if _, ok := middleware.GetUserID(c); !ok {
		return response.Unauthorized(c, "")
	}

	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	analysis := h.analysis.AnalyzeOrDefault(c.Context(), req.Message)
	return response.Success(c, analysis)
}

// mapChatError translates service and provider failures into HTTP statuses
func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return response.NotFound(c, "Chat session not found")
	case errors.Is(err, services.ErrSessionArchived):
		return response.Conflict(c, "Chat session is archived")
	case errors.Is(err, llm.ErrMissingAPIKey):
		return response.ServiceUnavailable(c, "No language model provider is configured")
	case errors.Is(err, llm.ErrTimeout):
		return response.GatewayTimeout(c, "The language model took too long to respond")
	case errors.Is(err, llm.ErrEmptyCompletion):
		return response.BadGateway(c, "The language model returned an empty reply")
	case errors.Is(err, llm.ErrProviderUnreachable):
		return response.ServiceUnavailable(c, "Failed to reach the language model provider")
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		return response.BadGateway(c, "The language model provider returned an error")
	}
	if errors.Is(err, services.ErrEmptyContent) {
		return response.BadRequest(c, "Message content cannot be empty")
	}
	return response.InternalServerError(c, "Failed to process message")
}
