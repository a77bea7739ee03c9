package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// MessageRepository defines the interface for direct message data operations
type MessageRepository interface {
	Create(message *models.Message) error
	ListConversation(userID, otherID uint, limit int) ([]models.Message, error)
	CountSentSince(senderID uint, since time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// ListConversation returns the latest messages exchanged between two users, oldest first
func (r *messageRepository) ListConversation(userID, otherID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where(
		"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
		userID, otherID, otherID, userID,
	).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) CountSentSince(senderID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("sender_id = ? AND created_at >= ?", senderID, since).
		Count(&count).Error
	return count, err
}
