package model

import (
	"time"

	"gorm.io/gorm"
)

// Device is a client device the user has signed in from
type Device struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Name       string         `gorm:"type:varchar(100);not null" json:"name"`
	Platform   string         `gorm:"type:varchar(50)" json:"platform"` // web, ios, android, desktop
	Trusted    bool           `gorm:"default:false" json:"trusted"`
	LastSeenAt *time.Time     `json:"last_seen_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Device) TableName() string {
	return "devices"
}

// LoginSession is an authenticated session tied to a refresh token JTI.
// Revoking the session blacklists the token.
type LoginSession struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	DeviceID   *uint          `gorm:"index" json:"device_id,omitempty"`
	IP         string         `gorm:"type:varchar(45)" json:"ip"`
	UserAgent  string         `gorm:"type:varchar(255)" json:"user_agent"`
	RefreshJTI string         `gorm:"type:varchar(100);index" json:"-"`
	RevokedAt  *time.Time     `json:"revoked_at,omitempty"`
	ExpiresAt  time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Device *Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}

func (LoginSession) TableName() string {
	return "login_sessions"
}

// IsActive reports whether the session can still be used
func (s *LoginSession) IsActive() bool {
	return s.RevokedAt == nil && time.Now().Before(s.ExpiresAt)
}
