package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
)

// MemoryHandler exposes stored conversation memories
type MemoryHandler struct {
	memory *services.MemoryService
}

// NewMemoryHandler creates the memory handler
func NewMemoryHandler(memory *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memory: memory}
}

// List returns the user's memory snapshots, optionally filtered by
// ?session_id=.
func (h *MemoryHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var sessionID *uint
	if raw := c.QueryInt("session_id", 0); raw > 0 {
		id := uint(raw)
		sessionID = &id
	}

	limit := c.QueryInt("limit", 20)
	snapshots, err := h.memory.ListSnapshots(c.Context(), userID, sessionID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load memories")
	}
	return response.Success(c, snapshots)
}

// ListForSession returns the memory snapshots of one conversation
func (h *MemoryHandler) ListForSession(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	raw, err := c.ParamsInt("id")
	if err != nil || raw <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}
	sessionID := uint(raw)

	limit := c.QueryInt("limit", 20)
	snapshots, err := h.memory.ListSnapshots(c.Context(), userID, &sessionID, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load memories")
	}
	return response.Success(c, snapshots)
}

// Delete removes one memory snapshot
func (h *MemoryHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	snapshotID, err := c.ParamsInt("id")
	if err != nil || snapshotID <= 0 {
		return response.BadRequest(c, "Invalid memory ID")
	}

	err = h.memory.DeleteSnapshot(c.Context(), userID, uint(snapshotID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Memory not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete memory")
	}
	return response.NoContent(c)
}
