package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
	"github.com/plotline-gh/marketplace/backend-go/internal/middleware"
)

// AdminHandler handles admin API requests for subscriptions and settlement
type AdminHandler struct {
	subscriptionService service.SubscriptionService
	transactionService  service.TransactionService
	logger              *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(subscriptionService service.SubscriptionService, transactionService service.TransactionService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		subscriptionService: subscriptionService,
		transactionService:  transactionService,
		logger:              logger,
	}
}

// ==================== Admin User Management ====================

// ChangePlanRequest represents the request body for moving a user to another plan
type ChangePlanRequest struct {
	PlanID   string     `json:"plan_id" binding:"required"`
	CycleEnd *time.Time `json:"cycle_end"` // Optional, defaults to one billing cycle from now
}

// ChangePlan handles PUT /admin/users/:user_id/plan
func (h *AdminHandler) ChangePlan(c *gin.Context) {
	userID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [AdminHandler] Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	planID := config.PlanID(strings.ToUpper(req.PlanID))
	h.logger.Info("📊 [AdminHandler] Admin changing user plan",
		"admin_id", c.GetUint(middleware.ContextUserID),
		"target_user_id", userID,
		"plan_id", planID,
	)

	view, err := h.subscriptionService.ChangePlan(c.Request.Context(), userID, planID, req.CycleEnd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("✅ [AdminHandler] User plan changed", "user_id", userID, "plan_id", planID)

	c.JSON(http.StatusOK, gin.H{
		"message":      "User plan updated successfully",
		"subscription": subscriptionJSON(view),
	})
}

// GetUserQuota handles GET /admin/users/:user_id/quota
func (h *AdminHandler) GetUserQuota(c *gin.Context) {
	userID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}

	quota, err := h.subscriptionService.GetQuota(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        quota.User.ID,
		"plan_id":        quota.User.PlanID,
		"status":         quota.User.SubscriptionStatus,
		"effective_plan": quota.EffectivePlan.ID,
		"usage":          usageJSON(quota.Usage),
	})
}

// ==================== Admin Operations ====================

// CompleteTransaction handles POST /admin/transactions/:reference/complete
func (h *AdminHandler) CompleteTransaction(c *gin.Context) {
	reference, err := uuid.Parse(c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction reference"})
		return
	}

	txn, err := h.transactionService.CompleteTransaction(c.Request.Context(), reference)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// RunExpirySweep handles POST /admin/subscriptions/expire
func (h *AdminHandler) RunExpirySweep(c *gin.Context) {
	expired, err := h.subscriptionService.ExpireLapsed(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("⏰ [AdminHandler] Manual expiry sweep finished", "expired", expired)
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
