package model

import (
	"time"

	"gorm.io/gorm"
)

// MessageRole represents the role of the message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// ChatSession represents a conversation between a user and the assistant
type ChatSession struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Title         string         `gorm:"type:varchar(255)" json:"title"`
	Status        string         `gorm:"type:varchar(20);default:'active'" json:"status"` // active, archived
	MessageCount  int            `gorm:"default:0" json:"message_count"`
	TotalTokens   int            `gorm:"default:0" json:"total_tokens"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User     User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is a single turn in a conversation. Content is immutable once
// persisted; edits append to the message_edits side table first.
type ChatMessage struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	SessionID  uint           `gorm:"not null;index" json:"session_id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Role       MessageRole    `gorm:"type:varchar(20);not null" json:"role"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	ModelUsed  string         `gorm:"type:varchar(100)" json:"model_used,omitempty"`
	TokensUsed int            `gorm:"default:0" json:"tokens_used"`

	// Relationships
	Session ChatSession   `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	User    User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Edits   []MessageEdit `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"edits,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// MessageEdit records the content a message held before an edit. Append-only.
type MessageEdit struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	MessageID       uint      `gorm:"not null;index" json:"message_id"`
	PreviousContent string    `gorm:"type:text;not null" json:"previous_content"`
	EditedAt        time.Time `gorm:"autoCreateTime" json:"edited_at"`
}

func (MessageEdit) TableName() string {
	return "message_edits"
}

// MemorySnapshot is an append-only summary record produced by the
// summarization module. ChatSessionID is nil for cross-session memories.
type MemorySnapshot struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	ChatSessionID *uint     `gorm:"index" json:"chat_session_id,omitempty"`
	Role          string    `gorm:"type:varchar(20);default:'summary'" json:"role"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

func (MemorySnapshot) TableName() string {
	return "memory_snapshots"
}
