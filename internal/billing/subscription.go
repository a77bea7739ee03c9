package billing

import (
	"time"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// SubscriptionState is the persisted subscription of a user. The engine reads
// it and never writes it.
type SubscriptionState struct {
	UserID   uint
	Category config.Category
	PlanID   config.PlanID
	Status   config.SubscriptionStatus
	CycleEnd *time.Time
}

// IsLapsed reports whether a paid subscription's billing period has ended
// without a renewal. Free plans never lapse.
func IsLapsed(state SubscriptionState, now time.Time) bool {
	if state.Status == config.SubscriptionExpired || state.PlanID == config.PlanFree {
		return false
	}
	if state.CycleEnd == nil {
		return state.Status == config.SubscriptionCancelled
	}
	return !state.CycleEnd.After(now)
}

// EffectivePlan returns the plan whose rules apply to the user right now.
// Active plans apply until their cycle end, cancelled ones run out their paid
// period, and everything else falls back to the category's free plan.
func EffectivePlan(state SubscriptionState, now time.Time) (config.PlanDefinition, error) {
	inPeriod := state.CycleEnd == nil || state.CycleEnd.After(now)

	switch {
	case state.Status == config.SubscriptionActive && inPeriod,
		state.Status == config.SubscriptionCancelled && state.CycleEnd != nil && inPeriod:
		return config.FindPlan(state.Category, state.PlanID)
	default:
		return config.DefaultPlan(state.Category)
	}
}
