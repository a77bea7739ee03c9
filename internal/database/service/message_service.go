package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/events"
)

// MessageService defines the interface for direct messaging business logic
type MessageService interface {
	SendMessage(ctx context.Context, senderID uint, input MessageInput) (*models.Message, error)
	ListConversation(userID, otherID uint, limit int) ([]models.Message, error)
}

// MessageInput is a direct message to another user
type MessageInput struct {
	RecipientID uint
	ListingID   *uint
	Body        string
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	quota       DailyQuota
	publisher   events.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewMessageService creates a new message service instance
func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	quota DailyQuota,
	publisher events.Publisher,
	logger *slog.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		quota:       quota,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// SendMessage enforces DIRECT_MESSAGING and DAILY_MESSAGES before storing the message.
// The stored count for today drives the plan check; the Redis counter makes
// concurrent sends from one user agree on the count.
func (s *messageService) SendMessage(ctx context.Context, senderID uint, input MessageInput) (*models.Message, error) {
	now := s.now()
	sender, plan, err := loadUserPlan(s.userRepo, senderID, now)
	if err != nil {
		return nil, err
	}
	if input.RecipientID == senderID {
		return nil, ErrMessageToSelf
	}
	if _, err := s.userRepo.FindByID(input.RecipientID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	sentToday, err := s.messageRepo.CountSentSince(senderID, startOfDay(now))
	if err != nil {
		s.logger.Error("❌ [MessageService] Failed to count messages", "sender_id", senderID, "error", err)
		return nil, err
	}

	decision, err := billing.CanSendMessage(sender.Category, plan.ID, sentToday)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Warn("⚠️ [MessageService] Message denied",
			"sender_id", senderID,
			"plan_id", plan.ID,
			"reason", decision.Reason,
			"sent_today", sentToday,
		)
		publishDenial(ctx, s.publisher, s.logger, senderID, plan, decision, now)
		return nil, decision.Err()
	}

	limit := plan.Limit(config.LimitDailyMessages)
	consumed := false
	allowed, used, err := s.quota.Consume(ctx, senderID, limit, now)
	switch {
	case err != nil:
		s.logger.Warn("⚠️ [MessageService] Daily quota counter unavailable, using stored count", "sender_id", senderID, "error", err)
	case !allowed:
		denied := billing.Decision{
			Reason:   billing.ReasonLimitReached,
			Resource: string(config.LimitDailyMessages),
			Limit:    limit,
			Current:  used,
		}
		s.logger.Warn("⚠️ [MessageService] Daily message limit reached", "sender_id", senderID, "used", used, "limit", limit)
		publishDenial(ctx, s.publisher, s.logger, senderID, plan, denied, now)
		return nil, denied.Err()
	default:
		consumed = true
	}

	message := &models.Message{
		SenderID:    senderID,
		RecipientID: input.RecipientID,
		ListingID:   input.ListingID,
		Body:        input.Body,
		CreatedAt:   now,
	}
	if err := s.messageRepo.Create(message); err != nil {
		s.logger.Error("❌ [MessageService] Failed to store message", "sender_id", senderID, "error", err)
		if consumed {
			if err := s.quota.Release(ctx, senderID, now); err != nil {
				s.logger.Warn("⚠️ [MessageService] Failed to release daily quota, counter overstates today's sends",
					"sender_id", senderID,
					"error", err,
				)
			}
		}
		return nil, err
	}

	s.logger.Debug("✉️ [MessageService] Message sent", "sender_id", senderID, "recipient_id", input.RecipientID)
	return message, nil
}

func (s *messageService) ListConversation(userID, otherID uint, limit int) ([]models.Message, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.messageRepo.ListConversation(userID, otherID, limit)
}

var (
	ErrMessageToSelf     = errors.New("cannot message yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
)
