package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
)

// SubscriptionHandler handles the authenticated user's subscription and quota
type SubscriptionHandler struct {
	service service.SubscriptionService
	logger  *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(service service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger,
	}
}

// GetSubscription handles GET /subscription
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	view, err := h.service.GetSubscription(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": subscriptionJSON(view)})
}

// CancelSubscription handles POST /subscription/cancel
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	view, err := h.service.CancelSubscription(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Subscription cancelled. Your plan stays active until the end of the current cycle.",
		"subscription": subscriptionJSON(view),
	})
}

// GetQuota handles GET /subscription/quota
func (h *SubscriptionHandler) GetQuota(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	quota, err := h.service.GetQuota(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        quota.User.ID,
		"category":       quota.User.Category,
		"effective_plan": quota.EffectivePlan.ID,
		"usage":          usageJSON(quota.Usage),
	})
}

func subscriptionJSON(view *service.SubscriptionView) gin.H {
	return gin.H{
		"user_id":        view.User.ID,
		"category":       view.User.Category,
		"plan_id":        view.User.PlanID,
		"status":         view.User.SubscriptionStatus,
		"cycle_end":      view.User.CycleEnd,
		"lapsed":         view.Lapsed,
		"effective_plan": planJSON(view.EffectivePlan),
	}
}

func usageJSON(usage []service.ResourceUsage) []gin.H {
	out := make([]gin.H, 0, len(usage))
	for _, u := range usage {
		out = append(out, gin.H{
			"resource":  u.Resource,
			"limit":     int64(u.Limit),
			"used":      u.Used,
			"remaining": u.Remaining,
			"unlimited": u.Limit.IsUnlimited(),
		})
	}
	return out
}
