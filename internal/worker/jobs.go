package worker

import (
	"context"
	"log/slog"
	"time"
)

// SubscriptionExpirer is the part of the subscription service the sweep needs
type SubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context) (int, error)
}

// TokenPurger removes refresh tokens past their expiry
type TokenPurger interface {
	DeleteExpired(now time.Time) (int64, error)
}

// NewExpirySweep returns the periodic maintenance job: lapsed paid
// subscriptions become EXPIRED and dead refresh tokens are purged.
func NewExpirySweep(subscriptions SubscriptionExpirer, tokens TokenPurger, logger *slog.Logger) Job {
	return func(ctx context.Context) {
		if ctx.Err() != nil {
			return
		}

		expired, err := subscriptions.ExpireLapsed(ctx)
		if err != nil {
			logger.Error("❌ [Worker] Subscription sweep failed", "error", err)
		} else if expired > 0 {
			logger.Info("✅ [Worker] Subscription sweep finished", "expired", expired)
		}

		purged, err := tokens.DeleteExpired(time.Now())
		if err != nil {
			logger.Error("❌ [Worker] Token purge failed", "error", err)
		} else if purged > 0 {
			logger.Debug("🧹 [Worker] Purged expired refresh tokens", "count", purged)
		}
	}
}
