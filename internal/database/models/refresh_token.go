package models

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken is a long-lived session credential. Only the SHA-256 digest of
// the token handed to the client is stored.
type RefreshToken struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	TokenHash string         `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time      `gorm:"not null;index" json:"expires_at"`
	Revoked   bool           `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName overrides the table name
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsUsable reports whether the token can still mint access tokens at now
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
