package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MoodLog captures one mood check-in. The mood/emotion/sentiment fields are
// filled from the message-analysis module when a note is supplied.
type MoodLog struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Mood            string         `gorm:"type:varchar(50);not null" json:"mood"`
	Note            string         `gorm:"type:text" json:"note,omitempty"`
	SentimentScore  float64        `gorm:"default:0" json:"sentiment_score"`
	SentimentLabel  string         `gorm:"type:varchar(20);default:'neutral'" json:"sentiment_label"`
	DominantEmotion string         `gorm:"type:varchar(50)" json:"dominant_emotion,omitempty"`
	LoggedAt        time.Time      `gorm:"not null;index" json:"logged_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MoodLog) TableName() string {
	return "mood_logs"
}

// DailyFocus is the single goal a user sets for a calendar day
type DailyFocus struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_user_focus_date,unique" json:"user_id"`
	FocusDate time.Time      `gorm:"type:date;not null;index:idx_user_focus_date,unique" json:"focus_date"`
	Goal      string         `gorm:"type:varchar(500);not null" json:"goal"`
	Completed bool           `gorm:"default:false" json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DailyFocus) TableName() string {
	return "daily_focuses"
}

// LibraryItemKind enumerates what a library entry holds
type LibraryItemKind string

const (
	LibraryKindPrompt       LibraryItemKind = "prompt"
	LibraryKindConversation LibraryItemKind = "conversation"
	LibraryKindNote         LibraryItemKind = "note"
)

// LibraryItem is a saved prompt, conversation excerpt, or note
type LibraryItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Kind      LibraryItemKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	Tags      datatypes.JSON  `gorm:"type:jsonb;default:'[]'" json:"tags,omitempty"`
	Pinned    bool            `gorm:"default:false" json:"pinned"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (LibraryItem) TableName() string {
	return "library_items"
}
