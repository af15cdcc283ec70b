package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered Quirra account
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`            // Never expose password in JSON
	PasswordSalt []byte         `gorm:"not null;type:bytea" json:"-"` // Salt for key derivation
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'member'" json:"role"` // member, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                            // Increment to invalidate all user tokens

	// Relationships
	Profile         *UserProfile        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	SecuritySetting *SecuritySetting    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Devices         []Device            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	LoginSessions   []LoginSession      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ChatSessions    []ChatSession       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ChatMessages    []ChatMessage       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MoodLogs        []MoodLog           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	LibraryItems    []LibraryItem       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MemorySnapshots []MemorySnapshot    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Shares          []ConversationShare `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist  []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserProfile holds the editable public-facing profile fields for a user
type UserProfile struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName    string         `gorm:"type:varchar(100)" json:"display_name"`
	Bio            string         `gorm:"type:text" json:"bio"`
	AvatarURL      string         `gorm:"type:varchar(500)" json:"avatar_url"`
	Locale         string         `gorm:"type:varchar(20);default:'en'" json:"locale"`
	Timezone       string         `gorm:"type:varchar(50);default:'UTC'" json:"timezone"`
	PreferredModel string         `gorm:"type:varchar(100)" json:"preferred_model"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
