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

// DailyQuota is the per-user daily counter backing the DAILY_MESSAGES limit.
// Remaining returns -1 when the counter does not track the user.
type DailyQuota interface {
	Consume(ctx context.Context, userID uint, limit config.Limit, now time.Time) (bool, int64, error)
	Release(ctx context.Context, userID uint, now time.Time) error
	Remaining(ctx context.Context, userID uint, limit config.Limit, now time.Time) (int64, error)
}

// startOfDay returns midnight UTC of now's day
func startOfDay(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// loadUserPlan returns the user together with the plan in effect at now
func loadUserPlan(userRepo repository.UserRepository, userID uint, now time.Time) (*models.User, config.PlanDefinition, error) {
	user, err := userRepo.FindByID(userID)
	if err != nil {
		return nil, config.PlanDefinition{}, err
	}
	plan, err := user.EffectivePlan(now)
	if err != nil {
		return nil, config.PlanDefinition{}, err
	}
	return user, plan, nil
}

// requireCategory rejects users outside the category an operation is for
func requireCategory(user *models.User, category config.Category) error {
	if user.Category != category {
		return ErrWrongCategory
	}
	return nil
}

// limitDenial turns a guarded insert's refusal into the same error the
// advisory check would have produced
func limitDenial(kind config.LimitKind, err error) error {
	var limitErr *repository.LimitReachedError
	if !errors.As(err, &limitErr) {
		return err
	}
	return billing.Decision{
		Allowed:  false,
		Reason:   billing.ReasonLimitReached,
		Resource: string(kind),
		Limit:    limitErr.Limit,
		Current:  limitErr.Current,
	}.Err()
}

// publish sends an event and logs instead of failing when the broker is unavailable
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("⚠️ [Events] Failed to publish event", "type", event.Type, "user_id", event.UserID, "error", err)
	}
}

// publishDenial emits quota.limit_reached for a denied action
func publishDenial(ctx context.Context, publisher events.Publisher, logger *slog.Logger, userID uint, plan config.PlanDefinition, d billing.Decision, at time.Time) {
	publish(ctx, publisher, logger, events.New(events.QuotaLimitReached, userID, at, map[string]any{
		"category": plan.Category,
		"plan_id":  plan.ID,
		"resource": d.Resource,
		"reason":   d.Reason,
		"limit":    int64(d.Limit),
		"current":  d.Current,
	}))
}

// Service errors shared across services
var (
	ErrWrongCategory   = errors.New("operation not available for your account category")
	ErrInvalidPlan     = errors.New("plan does not exist for this category")
	ErrNothingToCancel = errors.New("no paid subscription to cancel")
	ErrNotOwner        = errors.New("resource belongs to another user")
)
