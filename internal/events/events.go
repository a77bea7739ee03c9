// Package events publishes marketplace domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type is the routing key of an event
type Type string

const (
	TransactionRecorded  Type = "transaction.recorded"
	TransactionCompleted Type = "transaction.completed"
	SubscriptionChanged  Type = "subscription.changed"
	SubscriptionExpired  Type = "subscription.expired"
	QuotaLimitReached    Type = "quota.limit_reached"
)

// Event is a single domain event as it goes on the wire
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       Type           `json:"type"`
	UserID     uint           `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New builds an event with a fresh id
func New(eventType Type, userID uint, at time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: at.UTC(),
		Data:       data,
	}
}

// Publisher delivers events. Publishing is best effort: callers log failures
// and never fail the business operation because of them.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
