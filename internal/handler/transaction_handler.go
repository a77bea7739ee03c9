package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
)

// TransactionHandler handles fee quotes and recorded sales
type TransactionHandler struct {
	service service.TransactionService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		logger:  logger,
	}
}

type FeeQuoteRequest struct {
	Amount billing.Amount `json:"amount_ghs"`
	PlanID string         `json:"plan_id"` // Optional, quotes another plan for comparison
}

type RecordSaleRequest struct {
	ListingID uint           `json:"listing_id" binding:"required"`
	BuyerID   uint           `json:"buyer_id" binding:"required"`
	Amount    billing.Amount `json:"amount_ghs"`
}

// QuoteFee handles POST /transactions/fee-quote
func (h *TransactionHandler) QuoteFee(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req FeeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [TransactionHandler] Invalid fee quote request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. amount_ghs must be a GHS amount."})
		return
	}

	var planID *config.PlanID
	if req.PlanID != "" {
		p := config.PlanID(strings.ToUpper(req.PlanID))
		planID = &p
	}

	quote, err := h.service.QuoteFee(userID, req.Amount, planID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// RecordSale handles POST /transactions
func (h *TransactionHandler) RecordSale(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [TransactionHandler] Invalid sale request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. listing_id and buyer_id required."})
		return
	}

	txn, err := h.service.RecordSale(c.Request.Context(), userID, service.SaleInput{
		ListingID: req.ListingID,
		BuyerID:   req.BuyerID,
		Amount:    req.Amount,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// GetTransaction handles GET /transactions/:reference
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	reference, err := uuid.Parse(c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction reference"})
		return
	}

	txn, err := h.service.GetTransaction(userID, reference)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// ListTransactions handles GET /transactions?page=1&page_size=20
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	txns, total, err := h.service.ListTransactions(userID, page, pageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}
