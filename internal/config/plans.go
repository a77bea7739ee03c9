package config

import (
	"errors"
	"fmt"
	"sort"
)

// Category is the user role class a plan applies to
type Category string

const (
	CategoryBuyer        Category = "BUYER"
	CategorySeller       Category = "SELLER"
	CategoryAgent        Category = "AGENT"
	CategoryProfessional Category = "PROFESSIONAL"
)

// PlanID names a subscription tier within a category
type PlanID string

const (
	PlanFree       PlanID = "FREE"
	PlanStarter    PlanID = "STARTER"
	PlanPremium    PlanID = "PREMIUM"
	PlanPro        PlanID = "PRO"
	PlanEnterprise PlanID = "ENTERPRISE"
)

// BillingCycle is how often a plan is charged
type BillingCycle string

const (
	BillingNone    BillingCycle = "NONE"
	BillingMonthly BillingCycle = "MONTHLY"
	BillingYearly  BillingCycle = "YEARLY"
)

// SubscriptionStatus is the persisted state of a user's subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// IsValidSubscriptionStatus checks if a status is one of the known values
func IsValidSubscriptionStatus(status SubscriptionStatus) bool {
	switch status {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionExpired:
		return true
	}
	return false
}

// Feature is a capability that a plan may unlock
type Feature string

const (
	FeatureDirectMessaging      Feature = "DIRECT_MESSAGING"
	FeatureVerifiedBadge        Feature = "VERIFIED_BADGE"
	FeatureFeaturedListings     Feature = "FEATURED_LISTINGS"
	FeatureAnalytics            Feature = "ANALYTICS"
	FeaturePrioritySupport      Feature = "PRIORITY_SUPPORT"
	FeatureDocumentVerification Feature = "DOCUMENT_VERIFICATION"
	FeatureEarlyAccess          Feature = "EARLY_ACCESS"
	FeatureMarketReports        Feature = "MARKET_REPORTS"
	FeatureLeadRouting          Feature = "LEAD_ROUTING"
)

// LimitKind names a countable resource that plans put a quota on
type LimitKind string

const (
	LimitActiveListings LimitKind = "ACTIVE_LISTINGS"
	LimitActiveClients  LimitKind = "ACTIVE_CLIENTS"
	LimitOpenLeads      LimitKind = "OPEN_LEADS"
	LimitDailyMessages  LimitKind = "DAILY_MESSAGES"
	LimitSavedListings  LimitKind = "SAVED_LISTINGS"
)

// Unlimited marks a limit with no upper bound
const Unlimited Limit = -1

// Limit is the maximum count of a resource; Unlimited (-1) means no limit
type Limit int64

// IsUnlimited reports whether the limit is unbounded
func (l Limit) IsUnlimited() bool {
	return l < 0
}

// Allows reports whether one more resource fits next to current
func (l Limit) Allows(current int64) bool {
	return l.IsUnlimited() || current < int64(l)
}

// ==================== Plan Definition ====================

// PlanDefinition is one immutable subscription tier. Features and limits are
// only reachable through the read accessors.
type PlanDefinition struct {
	Category          Category
	ID                PlanID
	Name              string
	BillingCycle      BillingCycle
	PricePesewas      int64 // Price per billing cycle in pesewas (1 GHS = 100 pesewas)
	FeeRateBps        int64 // Seller transaction fee in basis points
	CommissionRateBps int64 // Professional commission in basis points

	features map[Feature]struct{}
	limits   map[LimitKind]Limit
}

// HasFeature reports whether the plan unlocks the feature
func (p PlanDefinition) HasFeature(feature Feature) bool {
	_, ok := p.features[feature]
	return ok
}

// Limit returns the quota for kind. Kinds the plan does not mention are 0.
func (p PlanDefinition) Limit(kind LimitKind) Limit {
	return p.limits[kind]
}

// Features returns the plan's features sorted by name
func (p PlanDefinition) Features() []Feature {
	out := make([]Feature, 0, len(p.features))
	for f := range p.features {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Limits returns a copy of the plan's limits
func (p PlanDefinition) Limits() map[LimitKind]Limit {
	out := make(map[LimitKind]Limit, len(p.limits))
	for k, v := range p.limits {
		out[k] = v
	}
	return out
}

// IsPaid reports whether the plan costs anything
func (p PlanDefinition) IsPaid() bool {
	return p.PricePesewas > 0
}

// ==================== Catalog ====================

func features(fs ...Feature) map[Feature]struct{} {
	out := make(map[Feature]struct{}, len(fs))
	for _, f := range fs {
		out[f] = struct{}{}
	}
	return out
}

var categoryOrder = []Category{CategoryBuyer, CategorySeller, CategoryAgent, CategoryProfessional}

// catalog holds every plan per category, ordered from most to least restrictive.
// It is built once and never written afterwards.
var catalog = map[Category][]PlanDefinition{
	CategoryBuyer: {
		{
			Category: CategoryBuyer, ID: PlanFree, Name: "Buyer Free", BillingCycle: BillingNone,
			features: features(FeatureDirectMessaging),
			limits: map[LimitKind]Limit{
				LimitDailyMessages: 10,
				LimitSavedListings: 20,
			},
		},
		{
			Category: CategoryBuyer, ID: PlanPremium, Name: "Buyer Premium", BillingCycle: BillingMonthly,
			PricePesewas: 49_00,
			features: features(FeatureDirectMessaging, FeatureEarlyAccess,
				FeatureDocumentVerification, FeatureMarketReports),
			limits: map[LimitKind]Limit{
				LimitDailyMessages: Unlimited,
				LimitSavedListings: Unlimited,
			},
		},
	},
	CategorySeller: {
		{
			Category: CategorySeller, ID: PlanFree, Name: "Seller Free", BillingCycle: BillingNone,
			FeeRateBps: 500, // 5%
			features:   features(FeatureDirectMessaging),
			limits: map[LimitKind]Limit{
				LimitActiveListings: 2,
				LimitDailyMessages:  20,
				LimitSavedListings:  20,
			},
		},
		{
			Category: CategorySeller, ID: PlanStarter, Name: "Seller Starter", BillingCycle: BillingMonthly,
			PricePesewas: 99_00,
			FeeRateBps:   350, // 3.5%
			features:     features(FeatureDirectMessaging, FeatureVerifiedBadge),
			limits: map[LimitKind]Limit{
				LimitActiveListings: 10,
				LimitDailyMessages:  100,
				LimitSavedListings:  50,
			},
		},
		{
			Category: CategorySeller, ID: PlanPro, Name: "Seller Pro", BillingCycle: BillingMonthly,
			PricePesewas: 299_00,
			FeeRateBps:   250, // 2.5%
			features: features(FeatureDirectMessaging, FeatureVerifiedBadge,
				FeatureFeaturedListings, FeatureAnalytics),
			limits: map[LimitKind]Limit{
				LimitActiveListings: 50,
				LimitDailyMessages:  Unlimited,
				LimitSavedListings:  Unlimited,
			},
		},
		{
			Category: CategorySeller, ID: PlanEnterprise, Name: "Seller Enterprise", BillingCycle: BillingMonthly,
			PricePesewas: 999_00,
			FeeRateBps:   150, // 1.5%
			features: features(FeatureDirectMessaging, FeatureVerifiedBadge,
				FeatureFeaturedListings, FeatureAnalytics,
				FeaturePrioritySupport, FeatureDocumentVerification),
			limits: map[LimitKind]Limit{
				LimitActiveListings: Unlimited,
				LimitDailyMessages:  Unlimited,
				LimitSavedListings:  Unlimited,
			},
		},
	},
	CategoryAgent: {
		{
			Category: CategoryAgent, ID: PlanFree, Name: "Agent Free", BillingCycle: BillingNone,
			features: features(FeatureDirectMessaging),
			limits: map[LimitKind]Limit{
				LimitActiveClients: 5,
				LimitDailyMessages: 20,
				LimitSavedListings: 20,
			},
		},
		{
			Category: CategoryAgent, ID: PlanPro, Name: "Agent Pro", BillingCycle: BillingMonthly,
			PricePesewas: 199_00,
			features:     features(FeatureDirectMessaging, FeatureVerifiedBadge, FeatureAnalytics),
			limits: map[LimitKind]Limit{
				LimitActiveClients: 50,
				LimitDailyMessages: Unlimited,
				LimitSavedListings: Unlimited,
			},
		},
		{
			Category: CategoryAgent, ID: PlanEnterprise, Name: "Agent Enterprise", BillingCycle: BillingMonthly,
			PricePesewas: 599_00,
			features: features(FeatureDirectMessaging, FeatureVerifiedBadge, FeatureAnalytics,
				FeatureLeadRouting, FeaturePrioritySupport),
			limits: map[LimitKind]Limit{
				LimitActiveClients: Unlimited,
				LimitDailyMessages: Unlimited,
				LimitSavedListings: Unlimited,
			},
		},
	},
	CategoryProfessional: {
		{
			Category: CategoryProfessional, ID: PlanFree, Name: "Professional Free", BillingCycle: BillingNone,
			CommissionRateBps: 1500, // 15%
			features:          features(FeatureDirectMessaging),
			limits: map[LimitKind]Limit{
				LimitOpenLeads:     5,
				LimitDailyMessages: 20,
				LimitSavedListings: 20,
			},
		},
		{
			Category: CategoryProfessional, ID: PlanStarter, Name: "Professional Starter", BillingCycle: BillingMonthly,
			PricePesewas:      79_00,
			CommissionRateBps: 1000, // 10%
			features:          features(FeatureDirectMessaging, FeatureVerifiedBadge),
			limits: map[LimitKind]Limit{
				LimitOpenLeads:     25,
				LimitDailyMessages: 100,
				LimitSavedListings: 50,
			},
		},
		{
			Category: CategoryProfessional, ID: PlanPro, Name: "Professional Pro", BillingCycle: BillingMonthly,
			PricePesewas:      249_00,
			CommissionRateBps: 500, // 5%
			features: features(FeatureDirectMessaging, FeatureVerifiedBadge,
				FeatureLeadRouting, FeatureAnalytics),
			limits: map[LimitKind]Limit{
				LimitOpenLeads:     Unlimited,
				LimitDailyMessages: Unlimited,
				LimitSavedListings: Unlimited,
			},
		},
	},
}

func init() {
	if err := ValidateCatalog(); err != nil {
		panic(err)
	}
}

// Categories returns all categories in display order
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// IsValidCategory checks if a category is known
func IsValidCategory(category Category) bool {
	_, ok := catalog[category]
	return ok
}

// IsValidPlan checks if planID exists within category
func IsValidPlan(category Category, planID PlanID) bool {
	_, err := FindPlan(category, planID)
	return err == nil
}

// GetPlansForCategory returns the category's plans, most restrictive first
func GetPlansForCategory(category Category) ([]PlanDefinition, error) {
	plans, ok := catalog[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	out := make([]PlanDefinition, len(plans))
	copy(out, plans)
	return out, nil
}

// FindPlan resolves a (category, planID) pair to its definition
func FindPlan(category Category, planID PlanID) (PlanDefinition, error) {
	plans, ok := catalog[category]
	if !ok {
		return PlanDefinition{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	for _, p := range plans {
		if p.ID == planID {
			return p, nil
		}
	}
	return PlanDefinition{}, fmt.Errorf("%w: %s/%s", ErrUnknownPlan, category, planID)
}

// DefaultPlan returns the free plan every user of the category falls back to
func DefaultPlan(category Category) (PlanDefinition, error) {
	plans, ok := catalog[category]
	if !ok || len(plans) == 0 {
		return PlanDefinition{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return plans[0], nil
}

// ValidateCatalog checks the static catalog for configuration errors
func ValidateCatalog() error {
	for _, category := range categoryOrder {
		plans := catalog[category]
		if len(plans) == 0 {
			return fmt.Errorf("%w: category %s has no plans", ErrInvalidCatalog, category)
		}
		if plans[0].IsPaid() {
			return fmt.Errorf("%w: first %s plan must be free", ErrInvalidCatalog, category)
		}

		seen := make(map[PlanID]bool, len(plans))
		for i, p := range plans {
			if p.Category != category {
				return fmt.Errorf("%w: plan %s filed under %s", ErrInvalidCatalog, p.ID, category)
			}
			if seen[p.ID] {
				return fmt.Errorf("%w: duplicate plan %s/%s", ErrInvalidCatalog, category, p.ID)
			}
			seen[p.ID] = true

			if i > 0 && p.PricePesewas < plans[i-1].PricePesewas {
				return fmt.Errorf("%w: %s plans are not ordered by price", ErrInvalidCatalog, category)
			}
			if p.PricePesewas < 0 || p.FeeRateBps < 0 || p.CommissionRateBps < 0 ||
				p.FeeRateBps > 10_000 || p.CommissionRateBps > 10_000 {
				return fmt.Errorf("%w: %s/%s has an out-of-range price or rate", ErrInvalidCatalog, category, p.ID)
			}
			if p.IsPaid() == (p.BillingCycle == BillingNone) {
				return fmt.Errorf("%w: %s/%s billing cycle does not match its price", ErrInvalidCatalog, category, p.ID)
			}
			for kind, limit := range p.limits {
				if limit < Unlimited {
					return fmt.Errorf("%w: %s/%s has invalid %s limit", ErrInvalidCatalog, category, p.ID, kind)
				}
			}
		}
	}
	if len(catalog) != len(categoryOrder) {
		return fmt.Errorf("%w: category order is out of sync", ErrInvalidCatalog)
	}
	return nil
}

// Catalog errors. These are configuration errors, not user errors.
var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrInvalidCatalog  = errors.New("invalid plan catalog")
)

// QuotaError represents a plan limit or feature gate that denied an action
type QuotaError struct {
	Resource string
	Reason   string
	Limit    int64
	Current  int64
	Message  string
}

func (e *QuotaError) Error() string {
	return e.Message
}

// NewQuotaError creates a new quota error
func NewQuotaError(resource, reason string, limit, current int64, message string) *QuotaError {
	return &QuotaError{
		Resource: resource,
		Reason:   reason,
		Limit:    limit,
		Current:  current,
		Message:  message,
	}
}
