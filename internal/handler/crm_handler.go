package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
)

// CRMHandler handles agent clients and professional leads
type CRMHandler struct {
	service service.CRMService
	logger  *slog.Logger
}

// NewCRMHandler creates a new CRM handler
func NewCRMHandler(service service.CRMService, logger *slog.Logger) *CRMHandler {
	return &CRMHandler{
		service: service,
		logger:  logger,
	}
}

type AddClientRequest struct {
	Name    string   `json:"name" binding:"required,min=1,max=100"`
	Phone   string   `json:"phone" binding:"omitempty,max=32"`
	Email   string   `json:"email" binding:"omitempty,email"`
	Regions []string `json:"regions" binding:"max=16"`
}

type AcceptLeadRequest struct {
	RequesterID uint           `json:"requester_id" binding:"required"`
	ListingID   *uint          `json:"listing_id"`
	Service     string         `json:"service" binding:"required,max=100"`
	Notes       string         `json:"notes" binding:"max=2000"`
	QuotedFee   billing.Amount `json:"quoted_fee_ghs"`
}

type CommissionQuoteRequest struct {
	Amount billing.Amount `json:"amount_ghs"`
}

// ==================== Agent Clients ====================

// AddClient handles POST /clients
func (h *CRMHandler) AddClient(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [CRMHandler] Invalid client request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	client, err := h.service.AddClient(c.Request.Context(), userID, service.ClientInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Regions: req.Regions,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// ListClients handles GET /clients
func (h *CRMHandler) ListClients(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	clients, err := h.service.ListClients(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clients": clients, "total": len(clients)})
}

// RemoveClient handles DELETE /clients/:client_id
func (h *CRMHandler) RemoveClient(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "client_id")
	if !ok {
		return
	}

	if err := h.service.RemoveClient(userID, clientID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client removed"})
}

// ==================== Professional Leads ====================

// AcceptLead handles POST /leads
func (h *CRMHandler) AcceptLead(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req AcceptLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [CRMHandler] Invalid lead request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	lead, err := h.service.AcceptLead(c.Request.Context(), userID, service.LeadInput{
		RequesterID: req.RequesterID,
		ListingID:   req.ListingID,
		Service:     req.Service,
		Notes:       req.Notes,
		QuotedFee:   req.QuotedFee,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lead": lead})
}

// ListLeads handles GET /leads?status=OPEN
func (h *CRMHandler) ListLeads(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var status *models.LeadStatus
	if raw := c.Query("status"); raw != "" {
		s := models.LeadStatus(strings.ToUpper(raw))
		if s != models.LeadOpen && s != models.LeadClosed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Valid values are: OPEN, CLOSED"})
			return
		}
		status = &s
	}

	leads, err := h.service.ListLeads(userID, status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": len(leads)})
}

// CloseLead handles POST /leads/:lead_id/close
func (h *CRMHandler) CloseLead(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}
	leadID, ok := uintParam(c, "lead_id")
	if !ok {
		return
	}

	if err := h.service.CloseLead(userID, leadID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead closed"})
}

// QuoteCommission handles POST /leads/commission-quote
func (h *CRMHandler) QuoteCommission(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req CommissionQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. amount_ghs must be a GHS amount."})
		return
	}

	quote, err := h.service.QuoteCommission(userID, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}
