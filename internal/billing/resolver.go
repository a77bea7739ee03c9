package billing

import (
	"errors"
	"fmt"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// Action is a premium-gated operation a user may attempt
type Action string

const (
	ActionSendMessage          Action = "SEND_MESSAGE"
	ActionFeatureListing       Action = "FEATURE_LISTING"
	ActionViewAnalytics        Action = "VIEW_ANALYTICS"
	ActionRequestDocumentCheck Action = "REQUEST_DOCUMENT_VERIFICATION"
	ActionAccessMarketReports  Action = "ACCESS_MARKET_REPORTS"
	ActionEarlyListingAccess   Action = "EARLY_LISTING_ACCESS"
	ActionReceiveRoutedLeads   Action = "RECEIVE_ROUTED_LEADS"
)

var actionFeatures = map[Action]config.Feature{
	ActionSendMessage:          config.FeatureDirectMessaging,
	ActionFeatureListing:       config.FeatureFeaturedListings,
	ActionViewAnalytics:        config.FeatureAnalytics,
	ActionRequestDocumentCheck: config.FeatureDocumentVerification,
	ActionAccessMarketReports:  config.FeatureMarketReports,
	ActionEarlyListingAccess:   config.FeatureEarlyAccess,
	ActionReceiveRoutedLeads:   config.FeatureLeadRouting,
}

// FeatureForAction returns the feature that unlocks an action
func FeatureForAction(action Action) (config.Feature, error) {
	feature, ok := actionFeatures[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return feature, nil
}

// GetSellerTransactionFeeRate returns the platform fee rate for a seller plan
func GetSellerTransactionFeeRate(planID config.PlanID) (Rate, error) {
	plan, err := config.FindPlan(config.CategorySeller, planID)
	if err != nil {
		return 0, err
	}
	return Rate(plan.FeeRateBps), nil
}

// GetProfessionalCommissionRate returns the commission rate for a professional plan
func GetProfessionalCommissionRate(planID config.PlanID) (Rate, error) {
	plan, err := config.FindPlan(config.CategoryProfessional, planID)
	if err != nil {
		return 0, err
	}
	return Rate(plan.CommissionRateBps), nil
}

// GetSellerListingLimit returns how many active listings a seller plan allows
func GetSellerListingLimit(planID config.PlanID) (config.Limit, error) {
	return ResolveLimit(config.CategorySeller, planID, config.LimitActiveListings)
}

// GetAgentClientLimit returns how many active clients an agent plan allows
func GetAgentClientLimit(planID config.PlanID) (config.Limit, error) {
	return ResolveLimit(config.CategoryAgent, planID, config.LimitActiveClients)
}

// GetProfessionalLeadLimit returns how many open leads a professional plan allows
func GetProfessionalLeadLimit(planID config.PlanID) (config.Limit, error) {
	return ResolveLimit(config.CategoryProfessional, planID, config.LimitOpenLeads)
}

// ResolveLimit returns the quota of kind for (category, planID)
func ResolveLimit(category config.Category, planID config.PlanID, kind config.LimitKind) (config.Limit, error) {
	plan, err := config.FindPlan(category, planID)
	if err != nil {
		return 0, err
	}
	return plan.Limit(kind), nil
}

// PlanHasFeature reports whether (category, planID) unlocks feature
func PlanHasFeature(category config.Category, planID config.PlanID, feature config.Feature) (bool, error) {
	plan, err := config.FindPlan(category, planID)
	if err != nil {
		return false, err
	}
	return plan.HasFeature(feature), nil
}

// RequiresPaidSubscription reports whether users of category need a paid plan
// to perform action, i.e. the category's free plan does not unlock it.
func RequiresPaidSubscription(category config.Category, action Action) (bool, error) {
	feature, err := FeatureForAction(action)
	if err != nil {
		return false, err
	}
	free, err := config.DefaultPlan(category)
	if err != nil {
		return false, err
	}
	return !free.HasFeature(feature), nil
}

// IsConfigurationError reports whether err comes from an unresolvable
// category, plan or action. Callers treat these as internal failures.
func IsConfigurationError(err error) bool {
	return errors.Is(err, config.ErrInvalidCategory) ||
		errors.Is(err, config.ErrUnknownPlan) ||
		errors.Is(err, config.ErrInvalidCatalog) ||
		errors.Is(err, ErrUnknownAction)
}

var ErrUnknownAction = errors.New("unknown action")
