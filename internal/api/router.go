package api

import (
	"github.com/gin-gonic/gin"

	"github.com/plotline-gh/marketplace/backend-go/internal/handler"
	"github.com/plotline-gh/marketplace/backend-go/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth         *handler.AuthHandler
	Plan         *handler.PlanHandler
	Subscription *handler.SubscriptionHandler
	Listing      *handler.ListingHandler
	Transaction  *handler.TransactionHandler
	CRM          *handler.CRMHandler
	Message      *handler.MessageHandler
	Admin        *handler.AdminHandler
}

func SetupRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetTrustedProxies(nil)

	v1 := r.Group("/api/v1")

	// Public routes
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	v1.GET("/plans", h.Plan.GetAllPlans)
	v1.GET("/plans/:category", h.Plan.GetCategoryPlans)

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Protected API routes
	api := v1.Group("")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/subscription", h.Subscription.GetSubscription)
		api.POST("/subscription/cancel", h.Subscription.CancelSubscription)
		api.GET("/subscription/quota", h.Subscription.GetQuota)

		api.POST("/listings", h.Listing.CreateListing)
		api.GET("/listings", h.Listing.ListMyListings)
		api.POST("/listings/:listing_id/archive", h.Listing.ArchiveListing)
		api.POST("/listings/:listing_id/feature", h.Listing.FeatureListing)

		api.POST("/transactions/fee-quote", h.Transaction.QuoteFee)
		api.POST("/transactions", h.Transaction.RecordSale)
		api.GET("/transactions", h.Transaction.ListTransactions)
		api.GET("/transactions/:reference", h.Transaction.GetTransaction)

		api.POST("/clients", h.CRM.AddClient)
		api.GET("/clients", h.CRM.ListClients)
		api.DELETE("/clients/:client_id", h.CRM.RemoveClient)

		api.POST("/leads", h.CRM.AcceptLead)
		api.GET("/leads", h.CRM.ListLeads)
		api.POST("/leads/commission-quote", h.CRM.QuoteCommission)
		api.POST("/leads/:lead_id/close", h.CRM.CloseLead)

		api.POST("/messages", h.Message.SendMessage)
		api.GET("/messages/:user_id", h.Message.ListConversation)
	}

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
	{
		admin.PUT("/users/:user_id/plan", h.Admin.ChangePlan)
		admin.GET("/users/:user_id/quota", h.Admin.GetUserQuota)
		admin.POST("/transactions/:reference/complete", h.Admin.CompleteTransaction)
		admin.POST("/subscriptions/expire", h.Admin.RunExpirySweep)
	}

	return r
}
