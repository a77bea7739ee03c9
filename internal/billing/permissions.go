package billing

import (
	"errors"
	"fmt"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// Reason explains why a Decision denied an action
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonLimitReached     Reason = "LIMIT_REACHED"
	ReasonFeatureNotInPlan Reason = "FEATURE_NOT_IN_PLAN"
)

// Decision is the outcome of a quota or feature check. A denial carries the
// limit so callers can render an upgrade prompt.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Resource string
	Limit    config.Limit
	Current  int64
}

// Err converts a denial into a *config.QuotaError; it returns nil when allowed
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var message string
	switch d.Reason {
	case ReasonFeatureNotInPlan:
		message = fmt.Sprintf("Your plan does not include %s, upgrade to unlock it", d.Resource)
	default:
		message = fmt.Sprintf("You have reached your plan limit of %d for %s, upgrade to add more", d.Limit, d.Resource)
	}
	return config.NewQuotaError(d.Resource, string(d.Reason), int64(d.Limit), d.Current, message)
}

// CanCreateListing checks a seller's active listing count against their plan
func CanCreateListing(currentCount int64, planID config.PlanID) (Decision, error) {
	return CheckLimit(config.CategorySeller, planID, config.LimitActiveListings, currentCount)
}

// CanAddClient checks an agent's active client count against their plan
func CanAddClient(currentCount int64, planID config.PlanID) (Decision, error) {
	return CheckLimit(config.CategoryAgent, planID, config.LimitActiveClients, currentCount)
}

// CanAcceptLead checks a professional's open lead count against their plan
func CanAcceptLead(currentCount int64, planID config.PlanID) (Decision, error) {
	return CheckLimit(config.CategoryProfessional, planID, config.LimitOpenLeads, currentCount)
}

// CanSendMessage checks today's sent message count against the plan
func CanSendMessage(category config.Category, planID config.PlanID, sentToday int64) (Decision, error) {
	allowed, err := CanUseFeature(category, planID, config.FeatureDirectMessaging)
	if err != nil || !allowed.Allowed {
		return allowed, err
	}
	return CheckLimit(category, planID, config.LimitDailyMessages, sentToday)
}

// CheckLimit allows iff the limit is unbounded or currentCount < limit
func CheckLimit(category config.Category, planID config.PlanID, kind config.LimitKind, currentCount int64) (Decision, error) {
	if currentCount < 0 {
		return Decision{}, fmt.Errorf("%w: %d", ErrInvalidCount, currentCount)
	}
	limit, err := ResolveLimit(category, planID, kind)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:  limit.Allows(currentCount),
		Resource: string(kind),
		Limit:    limit,
		Current:  currentCount,
	}
	if !d.Allowed {
		d.Reason = ReasonLimitReached
	}
	return d, nil
}

// CanUseFeature denies with FEATURE_NOT_IN_PLAN when the plan lacks feature
func CanUseFeature(category config.Category, planID config.PlanID, feature config.Feature) (Decision, error) {
	ok, err := PlanHasFeature(category, planID, feature)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Allowed: ok, Resource: string(feature)}
	if !ok {
		d.Reason = ReasonFeatureNotInPlan
	}
	return d, nil
}

var ErrInvalidCount = errors.New("invalid usage count")
