package sessions

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	authutil "github.com/quirra-app/quirra-api/utils/auth"
	"github.com/quirra-app/quirra-api/utils/middleware"
	"github.com/quirra-app/quirra-api/utils/response"
)

// SessionHandler lists and revokes authenticated login sessions
type SessionHandler struct {
	db        *gorm.DB
	blacklist *authutil.BlacklistService
}

// NewSessionHandler creates the session handler
func NewSessionHandler(db *gorm.DB) *SessionHandler {
	return &SessionHandler{db: db, blacklist: authutil.NewBlacklistService(db)}
}

// SessionResponse is a login session as shown to its owner
type SessionResponse struct {
	ID        uint          `json:"id"`
	IP        string        `json:"ip"`
	UserAgent string        `json:"user_agent"`
	Device    *model.Device `json:"device,omitempty"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// List returns the user's login sessions, newest first
func (h *SessionHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var rows []model.LoginSession
	err := h.db.Preload("Device").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&rows).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load sessions")
	}

	out := make([]SessionResponse, 0, len(rows))
	for i := range rows {
		s := &rows[i]
		out = append(out, SessionResponse{
			ID:        s.ID,
			IP:        s.IP,
			UserAgent: s.UserAgent,
			Device:    s.Device,
			Active:    s.IsActive(),
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}
	return response.Success(c, out)
}

// Revoke closes one login session and blacklists its refresh token
func (h *SessionHandler) Revoke(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil || sessionID <= 0 {
		return response.BadRequest(c, "Invalid session ID")
	}

	var session model.LoginSession
	err = h.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return response.NotFound(c, "Session not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load session")
	}
	if session.RevokedAt != nil {
		return response.Conflict(c, "Session is already revoked")
	}

	now := time.Now()
	if err := h.db.Model(&session).Update("revoked_at", &now).Error; err != nil {
		return response.InternalServerError(c, "Failed to revoke session")
	}

	if session.RefreshJTI != "" {
		_ = h.blacklist.RevokeToken(c.Context(), session.RefreshJTI, userID, session.ExpiresAt, "session_revoked")
	}

	return response.SuccessWithMessage(c, "Session revoked", nil)
}
