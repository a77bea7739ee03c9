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

// SubscriptionService defines the interface for plan and subscription business logic
type SubscriptionService interface {
	// Catalog
	ListPlans(category config.Category) ([]config.PlanDefinition, error)

	// Subscription lifecycle
	GetSubscription(userID uint) (*SubscriptionView, error)
	ChangePlan(ctx context.Context, userID uint, planID config.PlanID, cycleEnd *time.Time) (*SubscriptionView, error)
	CancelSubscription(ctx context.Context, userID uint) (*SubscriptionView, error)
	ExpireLapsed(ctx context.Context) (int, error)

	// Quota
	GetQuota(ctx context.Context, userID uint) (*QuotaView, error)
}

// SubscriptionView is the persisted subscription next to the plan that applies now
type SubscriptionView struct {
	User          *models.User
	EffectivePlan config.PlanDefinition
	Lapsed        bool
}

// QuotaView reports usage against every limit tracked for the user's category
type QuotaView struct {
	User          *models.User
	EffectivePlan config.PlanDefinition
	Usage         []ResourceUsage
}

// ResourceUsage is one limit with its current count. Remaining is -1 when unlimited.
type ResourceUsage struct {
	Resource  config.LimitKind
	Limit     config.Limit
	Used      int64
	Remaining int64
}

type subscriptionService struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	crmRepo     repository.CRMRepository
	messageRepo repository.MessageRepository
	quota       DailyQuota
	publisher   events.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	crmRepo repository.CRMRepository,
	messageRepo repository.MessageRepository,
	quota DailyQuota,
	publisher events.Publisher,
	logger *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		crmRepo:     crmRepo,
		messageRepo: messageRepo,
		quota:       quota,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// ==================== Catalog ====================

func (s *subscriptionService) ListPlans(category config.Category) ([]config.PlanDefinition, error) {
	plans, err := config.GetPlansForCategory(category)
	if err != nil {
		return nil, ErrInvalidCategory
	}
	return plans, nil
}

// ==================== Subscription Lifecycle ====================

func (s *subscriptionService) GetSubscription(userID uint) (*SubscriptionView, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.logger.Error("❌ [SubscriptionService] Failed to find user", "user_id", userID, "error", err)
		return nil, err
	}
	return s.view(user)
}

// ChangePlan moves a user onto planID. It is called by admins and after a
// confirmed payment. A nil cycleEnd on a paid plan starts a fresh cycle from now.
func (s *subscriptionService) ChangePlan(ctx context.Context, userID uint, planID config.PlanID, cycleEnd *time.Time) (*SubscriptionView, error) {
	s.logger.Info("🔄 [SubscriptionService] Changing plan", "user_id", userID, "plan_id", planID)

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.logger.Error("❌ [SubscriptionService] Failed to find user", "user_id", userID, "error", err)
		return nil, err
	}

	plan, err := config.FindPlan(user.Category, planID)
	if err != nil {
		s.logger.Warn("⚠️ [SubscriptionService] Plan not offered for category",
			"user_id", userID,
			"category", user.Category,
			"plan_id", planID,
		)
		return nil, ErrInvalidPlan
	}

	now := s.now()
	var end *time.Time
	if plan.IsPaid() {
		if cycleEnd != nil {
			if !cycleEnd.After(now) {
				return nil, ErrCycleEndInPast
			}
			end = cycleEnd
		} else {
			next := nextCycleEnd(plan.BillingCycle, now)
			end = &next
		}
	}

	previous := user.PlanID
	if err := s.userRepo.UpdateSubscription(user.ID, plan.ID, config.SubscriptionActive, end); err != nil {
		s.logger.Error("❌ [SubscriptionService] Failed to update subscription", "user_id", userID, "error", err)
		return nil, err
	}

	user.PlanID = plan.ID
	user.SubscriptionStatus = config.SubscriptionActive
	user.CycleEnd = end

	publish(ctx, s.publisher, s.logger, events.New(events.SubscriptionChanged, user.ID, now, map[string]any{
		"category":      user.Category,
		"previous_plan": previous,
		"plan_id":       plan.ID,
		"status":        config.SubscriptionActive,
		"cycle_end":     end,
	}))

	s.logger.Info("✅ [SubscriptionService] Plan changed",
		"user_id", userID,
		"from", previous,
		"to", plan.ID,
	)
	return s.view(user)
}

// CancelSubscription stops renewal. The paid plan keeps applying until the
// current cycle ends, after which the expiry sweep moves the user to free.
func (s *subscriptionService) CancelSubscription(ctx context.Context, userID uint) (*SubscriptionView, error) {
	s.logger.Info("🛑 [SubscriptionService] Cancelling subscription", "user_id", userID)

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user.PlanID == config.PlanFree || user.SubscriptionStatus != config.SubscriptionActive {
		s.logger.Warn("⚠️ [SubscriptionService] Nothing to cancel",
			"user_id", userID,
			"plan_id", user.PlanID,
			"status", user.SubscriptionStatus,
		)
		return nil, ErrNothingToCancel
	}

	if err := s.userRepo.UpdateSubscription(user.ID, user.PlanID, config.SubscriptionCancelled, user.CycleEnd); err != nil {
		s.logger.Error("❌ [SubscriptionService] Failed to cancel subscription", "user_id", userID, "error", err)
		return nil, err
	}
	user.SubscriptionStatus = config.SubscriptionCancelled

	publish(ctx, s.publisher, s.logger, events.New(events.SubscriptionChanged, user.ID, s.now(), map[string]any{
		"category":  user.Category,
		"plan_id":   user.PlanID,
		"status":    config.SubscriptionCancelled,
		"cycle_end": user.CycleEnd,
	}))

	s.logger.Info("✅ [SubscriptionService] Subscription cancelled", "user_id", userID)
	return s.view(user)
}

// ExpireLapsed marks every lapsed paid subscription EXPIRED and returns how many were expired
func (s *subscriptionService) ExpireLapsed(ctx context.Context) (int, error) {
	now := s.now()

	lapsed, err := s.userRepo.ExpireLapsed(now)
	if err != nil {
		s.logger.Error("❌ [SubscriptionService] Expiry sweep failed", "error", err)
		return 0, err
	}

	for _, user := range lapsed {
		publish(ctx, s.publisher, s.logger, events.New(events.SubscriptionExpired, user.ID, now, map[string]any{
			"category":      user.Category,
			"previous_plan": user.PlanID,
			"cycle_end":     user.CycleEnd,
		}))
	}

	if len(lapsed) > 0 {
		s.logger.Info("⏰ [SubscriptionService] Expired lapsed subscriptions", "count", len(lapsed))
	}
	return len(lapsed), nil
}

// ==================== Quota ====================

func (s *subscriptionService) GetQuota(ctx context.Context, userID uint) (*QuotaView, error) {
	s.logger.Info("📊 [SubscriptionService] Getting quota", "user_id", userID)

	now := s.now()
	user, plan, err := loadUserPlan(s.userRepo, userID, now)
	if err != nil {
		s.logger.Error("❌ [SubscriptionService] Failed to resolve plan", "user_id", userID, "error", err)
		return nil, err
	}

	var usage []ResourceUsage
	add := func(kind config.LimitKind, used int64) {
		limit := plan.Limit(kind)
		remaining := int64(-1)
		if !limit.IsUnlimited() {
			remaining = max(int64(limit)-used, 0)
		}
		usage = append(usage, ResourceUsage{Resource: kind, Limit: limit, Used: used, Remaining: remaining})
	}

	switch user.Category {
	case config.CategorySeller:
		count, err := s.listingRepo.CountActiveBySeller(user.ID)
		if err != nil {
			return nil, err
		}
		add(config.LimitActiveListings, count)
	case config.CategoryAgent:
		count, err := s.crmRepo.CountActiveClients(user.ID)
		if err != nil {
			return nil, err
		}
		add(config.LimitActiveClients, count)
	case config.CategoryProfessional:
		count, err := s.crmRepo.CountOpenLeads(user.ID)
		if err != nil {
			return nil, err
		}
		add(config.LimitOpenLeads, count)
	}

	sent, err := s.messageRepo.CountSentSince(user.ID, startOfDay(now))
	if err != nil {
		s.logger.Warn("⚠️ [SubscriptionService] Failed to count messages", "user_id", userID, "error", err)
		sent = 0
	}
	add(config.LimitDailyMessages, s.messagesSentToday(ctx, user.ID, plan.Limit(config.LimitDailyMessages), now, sent))

	return &QuotaView{User: user, EffectivePlan: plan, Usage: usage}, nil
}

// messagesSentToday reconciles the stored count with the live daily counter,
// which also sees sends still in flight
func (s *subscriptionService) messagesSentToday(ctx context.Context, userID uint, limit config.Limit, now time.Time, stored int64) int64 {
	if s.quota == nil || limit.IsUnlimited() {
		return stored
	}
	remaining, err := s.quota.Remaining(ctx, userID, limit, now)
	if err != nil {
		s.logger.Warn("⚠️ [SubscriptionService] Daily quota counter unavailable, using stored count", "user_id", userID, "error", err)
		return stored
	}
	if remaining < 0 {
		return stored
	}
	return max(stored, int64(limit)-remaining)
}

func (s *subscriptionService) view(user *models.User) (*SubscriptionView, error) {
	now := s.now()
	plan, err := user.EffectivePlan(now)
	if err != nil {
		s.logger.Error("❌ [SubscriptionService] Failed to resolve effective plan", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &SubscriptionView{
		User:          user,
		EffectivePlan: plan,
		Lapsed:        billing.IsLapsed(user.Subscription(), now),
	}, nil
}

// nextCycleEnd returns when a cycle of the given length starting at now ends
func nextCycleEnd(cycle config.BillingCycle, now time.Time) time.Time {
	now = now.UTC()
	if cycle == config.BillingYearly {
		return now.AddDate(1, 0, 0)
	}
	return now.AddDate(0, 1, 0)
}

var ErrCycleEndInPast = errors.New("cycle end must be in the future")
