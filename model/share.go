package model

import (
	"time"

	"gorm.io/gorm"
)

// ConversationShare is a public, slug-addressed snapshot of a chat session.
// The snapshot is taken at share time; later edits to the conversation do
// not leak into the share.
type ConversationShare struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	SessionID uint           `gorm:"not null;index" json:"session_id"`
	Slug      string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Title     string         `gorm:"type:varchar(255)" json:"title"`
	ViewCount int64          `gorm:"default:0" json:"view_count"`
	MaxViews  *int64         `json:"max_views,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	RevokedAt *time.Time     `json:"revoked_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User     User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Session  ChatSession     `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []SharedMessage `gorm:"foreignKey:ShareID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (ConversationShare) TableName() string {
	return "conversation_shares"
}

// IsGone reports whether the share should answer 410 to public readers.
func (s *ConversationShare) IsGone(now time.Time) bool {
	if s.RevokedAt != nil {
		return true
	}
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return true
	}
	if s.MaxViews != nil && s.ViewCount >= *s.MaxViews {
		return true
	}
	return false
}

// SharedMessage is one turn of the snapshotted conversation
type SharedMessage struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	ShareID  uint        `gorm:"not null;index" json:"share_id"`
	Role     MessageRole `gorm:"type:varchar(20);not null" json:"role"`
	Content  string      `gorm:"type:text;not null" json:"content"`
	Position int         `gorm:"not null" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}

func (SharedMessage) TableName() string {
	return "shared_messages"
}
