package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
	"github.com/plotline-gh/marketplace/backend-go/internal/middleware"
)

// respondError maps service and engine errors to HTTP responses
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var quotaErr *config.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error":    quotaErr.Message,
			"reason":   quotaErr.Reason,
			"resource": quotaErr.Resource,
			"limit":    quotaErr.Limit,
			"current":  quotaErr.Current,
		})

	// Configuration errors are checked before user errors so that a broken
	// catalog never surfaces as a 400
	case billing.IsConfigurationError(err):
		logger.Error("❌ [Handler] Billing configuration error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

	case errors.Is(err, billing.ErrInvalidAmount), errors.Is(err, billing.ErrMalformedAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidPlan),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrCycleEndInPast),
		errors.Is(err, service.ErrSelfPurchase),
		errors.Is(err, service.ErrMessageToSelf):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, repository.ErrTokenNotFound),
		errors.Is(err, repository.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})

	case errors.Is(err, service.ErrWrongCategory), errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrListingNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrLeadNotFound),
		errors.Is(err, service.ErrBuyerNotFound),
		errors.Is(err, service.ErrRecipientNotFound),
		errors.Is(err, service.ErrRequesterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, service.ErrNothingToCancel),
		errors.Is(err, service.ErrListingNotActive),
		errors.Is(err, service.ErrLeadNotOpen),
		errors.Is(err, repository.ErrTransactionNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	default:
		logger.Error("❌ [Handler] Internal server error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID reads the authenticated user set by the auth middleware
func currentUserID(c *gin.Context, logger *slog.Logger) (uint, bool) {
	userID, exists := c.Get(middleware.ContextUserID)
	if !exists {
		logger.Error("❌ [Handler] User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID.(uint), true
}

// uintParam parses a numeric path parameter
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
