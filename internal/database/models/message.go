package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two users, optionally about a listing
type Message struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	SenderID    uint           `gorm:"not null;index:idx_message_sender_created" json:"sender_id"`
	RecipientID uint           `gorm:"not null;index" json:"recipient_id"`
	ListingID   *uint          `gorm:"index" json:"listing_id,omitempty"`
	Body        string         `gorm:"type:text;not null" json:"body"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `gorm:"index:idx_message_sender_created" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Message) TableName() string {
	return "messages"
}
