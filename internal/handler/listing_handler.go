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

// ListingHandler handles seller listing requests
type ListingHandler struct {
	service service.ListingService
	logger  *slog.Logger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		logger:  logger,
	}
}

type CreateListingRequest struct {
	Title       string         `json:"title" binding:"required,min=3,max=200"`
	Description string         `json:"description" binding:"max=5000"`
	Region      string         `json:"region" binding:"required"`
	Locality    string         `json:"locality"`
	AreaSqm     int64          `json:"area_sqm" binding:"required,gt=0"`
	Price       billing.Amount `json:"price_ghs"`
	Tags        []string       `json:"tags" binding:"max=20,dive,max=40"`
}

// CreateListing handles POST /listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [ListingHandler] Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), userID, service.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Region:      req.Region,
		Locality:    req.Locality,
		AreaSqm:     req.AreaSqm,
		Price:       req.Price,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// ListMyListings handles GET /listings?status=ACTIVE
func (h *ListingHandler) ListMyListings(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var status *models.ListingStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ListingStatus(strings.ToUpper(raw))
		switch s {
		case models.ListingActive, models.ListingSold, models.ListingArchived:
			status = &s
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Valid values are: ACTIVE, SOLD, ARCHIVED"})
			return
		}
	}

	listings, err := h.service.ListMyListings(userID, status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings, "total": len(listings)})
}

// ArchiveListing handles POST /listings/:listing_id/archive
func (h *ListingHandler) ArchiveListing(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}
	listingID, ok := uintParam(c, "listing_id")
	if !ok {
		return
	}

	if err := h.service.ArchiveListing(userID, listingID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing archived"})
}

// FeatureListing handles POST /listings/:listing_id/feature
func (h *ListingHandler) FeatureListing(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}
	listingID, ok := uintParam(c, "listing_id")
	if !ok {
		return
	}

	listing, err := h.service.FeatureListing(c.Request.Context(), userID, listingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}
