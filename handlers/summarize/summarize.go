package summarize

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/services/llm"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// SummarizeHandler exposes on-demand conversation summarization
type SummarizeHandler struct {
	memory    *services.MemoryService
	validator *validation.Validator
}

// NewSummarizeHandler creates the summarize handler
func NewSummarizeHandler(memory *services.MemoryService) *SummarizeHandler {
	return &SummarizeHandler{memory: memory, validator: validation.NewValidator()}
}

// Request carries the turns to condense. chat_session_id optionally ties
// the resulting memory to a stored conversation.
type Request struct {
	SessionID *uint                     `json:"chat_session_id,omitempty"`
	Messages  []services.SummarizeInput `json:"messages_to_summarize" validate:"required,min=1,dive"`
}

// Summarize condenses the given turns into a stored memory snapshot.
// Provider failures map onto gateway statuses so clients can distinguish
// a bad request from an unavailable model.
func (h *SummarizeHandler) Summarize(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.Messages) == 0 {
		return response.BadRequest(c, "At least one message is required")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	snapshot, err := h.memory.Summarize(c.Context(), userID, req.SessionID, req.Messages)
	if errors.Is(err, services.ErrEmptySummary) {
		// An empty completion is a valid outcome, not a failure
		return response.SuccessWithMessage(c, "No summary generated", nil)
	}
	if err != nil {
		return mapSummarizeError(c, err)
	}
	return response.SuccessWithMessage(c, "Summary generated", snapshot)
}

func mapSummarizeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNoMessages):
		return response.BadRequest(c, "At least one message is required")
	case errors.Is(err, services.ErrSnapshotPersist):
		return response.InternalServerError(c, "Failed to store memory snapshot")
	case errors.Is(err, llm.ErrMissingAPIKey):
		return response.ServiceUnavailable(c, "No language model provider is configured")
	case errors.Is(err, llm.ErrTimeout):
		return response.GatewayTimeout(c, "Summarization timed out")
	case errors.Is(err, llm.ErrProviderUnreachable):
		return response.ServiceUnavailable(c, "Failed to reach the language model provider")
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		return response.BadGateway(c, "The language model provider returned an error")
	}
	return response.InternalServerError(c, "Failed to summarize messages")
}
