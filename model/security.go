package model

import (
	"time"

	"gorm.io/gorm"
)

// SecuritySetting holds per-user account security preferences
type SecuritySetting struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	TwoFactorEnabled   bool           `gorm:"default:false" json:"two_factor_enabled"`
	LoginAlerts        bool           `gorm:"default:true" json:"login_alerts"`
	DataRetentionDays  int            `gorm:"default:365" json:"data_retention_days"`
	AllowMemoryStorage bool           `gorm:"default:true" json:"allow_memory_storage"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SecuritySetting) TableName() string {
	return "security_settings"
}

// UserProviderKey stores a user-supplied LLM provider API key, encrypted at
// rest with AES-256-GCM. The encryption key is derived from the user's
// password salt, so the plaintext is never stored or logged.
type UserProviderKey struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index:idx_user_provider,unique" json:"user_id"`
	Provider     string         `gorm:"type:varchar(50);not null;index:idx_user_provider,unique" json:"provider"` // openai, openrouter, huggingface
	EncryptedKey []byte         `gorm:"not null;type:bytea" json:"-"`
	Nonce        []byte         `gorm:"not null;type:bytea" json:"-"`
	KeyHint      string         `gorm:"type:varchar(12)" json:"key_hint"` // last 4 chars, for display
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserProviderKey) TableName() string {
	return "user_provider_keys"
}

// JWTTokenBlacklist tracks revoked token JTIs until their natural expiry
type JWTTokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"type:varchar(100);not null;index" json:"token"` // JTI
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Reason    string    `gorm:"type:varchar(100)" json:"reason"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (JWTTokenBlacklist) TableName() string {
	return "jwt_token_blacklist"
}
