package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
)

// PlanHandler handles public plan information API requests
type PlanHandler struct {
	service service.SubscriptionService
	logger  *slog.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(service service.SubscriptionService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		service: service,
		logger:  logger,
	}
}

// GetAllPlans handles GET /plans - returns every category's plans and their limits
func (h *PlanHandler) GetAllPlans(c *gin.Context) {
	categories := []gin.H{}

	for _, category := range config.Categories() {
		plans, err := h.service.ListPlans(category)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		categories = append(categories, gin.H{
			"category": category,
			"plans":    planList(plans),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// GetCategoryPlans handles GET /plans/:category - returns one category's plans
func (h *PlanHandler) GetCategoryPlans(c *gin.Context) {
	category := config.Category(strings.ToUpper(c.Param("category")))
	if !config.IsValidCategory(category) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown category. Valid values are: BUYER, SELLER, AGENT, PROFESSIONAL"})
		return
	}

	plans, err := h.service.ListPlans(category)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"plans":    planList(plans),
	})
}

func planList(plans []config.PlanDefinition) []gin.H {
	out := make([]gin.H, 0, len(plans))
	for _, p := range plans {
		out = append(out, planJSON(p))
	}
	return out
}

// planJSON renders a plan. Unlimited limits are reported as -1.
func planJSON(p config.PlanDefinition) gin.H {
	limits := gin.H{}
	for kind, limit := range p.Limits() {
		limits[string(kind)] = int64(limit)
	}

	plan := gin.H{
		"id":            p.ID,
		"name":          p.Name,
		"category":      p.Category,
		"billing_cycle": p.BillingCycle,
		"price_ghs":     billing.Amount(p.PricePesewas),
		"features":      p.Features(),
		"limits":        limits,
	}
	switch p.Category {
	case config.CategorySeller:
		plan["transaction_fee_bps"] = p.FeeRateBps
	case config.CategoryProfessional:
		plan["commission_bps"] = p.CommissionRateBps
	}
	return plan
}
