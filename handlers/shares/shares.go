package shares

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
	"github.com/quirra-app/quirra-api/utils/validation"
)

// ShareHandler exposes conversation sharing. Creation and management are
// authenticated; resolution by slug is public.
type ShareHandler struct {
	shares    *services.ShareService
	validator *validation.Validator
}

// NewShareHandler creates the share handler
func NewShareHandler(shares *services.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares, validator: validation.NewValidator()}
}

// CreateResponse is the freshly minted public link
type CreateResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// Create snapshots one of the caller's conversations into a public share
func (h *ShareHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req services.CreateShareInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	share, err := h.shares.CreateShare(c.Context(), userID, req)
	if errors.Is(err, services.ErrSessionNotFound) {
		return response.NotFound(c, "Conversation not found")
	}
	if errors.Is(err, services.ErrEmptyConversation) {
		return response.BadRequest(c, "Conversation has no messages to share")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to create share")
	}

	return response.Created(c, CreateResponse{
		Slug: share.Slug,
		URL:  h.shares.PublicURL(share.Slug),
	})
}

// List returns the caller's shares
func (h *ShareHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	shares, err := h.shares.ListShares(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load shares")
	}
	return response.Success(c, shares)
}

// Revoke permanently disables one of the caller's shares
func (h *ShareHandler) Revoke(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	slug := c.Params("slug")
	if slug == "" {
		return response.BadRequest(c, "Missing share slug")
	}

	err := h.shares.RevokeShare(c.Context(), userID, slug)
	if errors.Is(err, services.ErrShareNotFound) {
		return response.NotFound(c, "Share not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to revoke share")
	}
	return response.NoContent(c)
}

// PublicShareResponse is what anonymous readers see
type PublicShareResponse struct {
	Slug      string                `json:"slug"`
	Title     string                `json:"title"`
	Messages  []model.SharedMessage `json:"messages"`
	ViewCount int64                 `json:"view_count"`
	CreatedAt string                `json:"created_at"`
}

// Resolve serves a public share by slug. No authentication; dead links
// answer 410 so clients can tell "never existed" from "was removed".
func (h *ShareHandler) Resolve(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return response.BadRequest(c, "Missing share slug")
	}

	share, err := h.shares.ResolveShare(c.Context(), slug)
	if errors.Is(err, services.ErrShareNotFound) {
		return response.NotFound(c, "Share not found")
	}
	if errors.Is(err, services.ErrShareGone) {
		return response.Gone(c, "")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load share")
	}

	return response.Success(c, PublicShareResponse{
		Slug:      share.Slug,
		Title:     share.Title,
		Messages:  share.Messages,
		ViewCount: share.ViewCount,
		CreatedAt: share.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}
