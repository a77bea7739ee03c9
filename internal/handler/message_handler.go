package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
)

// MessageHandler handles direct messages between users
type MessageHandler struct {
	service service.MessageService
	logger  *slog.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(service service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger,
	}
}

type SendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	ListingID   *uint  `json:"listing_id"`
	Body        string `json:"body" binding:"required,min=1,max=4000"`
}

// SendMessage handles POST /messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [MessageHandler] Invalid message request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. recipient_id and body required."})
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), userID, service.MessageInput{
		RecipientID: req.RecipientID,
		ListingID:   req.ListingID,
		Body:        req.Body,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// ListConversation handles GET /messages/:user_id?limit=50
func (h *MessageHandler) ListConversation(c *gin.Context) {
	userID, ok := currentUserID(c, h.logger)
	if !ok {
		return
	}
	otherID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.service.ListConversation(userID, otherID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
