package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
	"github.com/plotline-gh/marketplace/backend-go/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withUser stands in for the auth middleware
func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ==================== Error Mapping ====================

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"quota denial", config.NewQuotaError("ACTIVE_LISTINGS", "LIMIT_REACHED", 2, 2, "limit reached"), http.StatusForbidden, "limit reached"},
		{"invalid amount", fmt.Errorf("%w: -1.00", billing.ErrInvalidAmount), http.StatusBadRequest, ""},
		{"malformed amount", billing.ErrMalformedAmount, http.StatusBadRequest, ""},
		{"invalid plan", service.ErrInvalidPlan, http.StatusBadRequest, ""},
		{"wrong category", service.ErrWrongCategory, http.StatusForbidden, ""},
		{"not owner", service.ErrNotOwner, http.StatusForbidden, ""},
		{"listing not found", repository.ErrListingNotFound, http.StatusNotFound, ""},
		{"buyer not found", service.ErrBuyerNotFound, http.StatusNotFound, ""},
		{"not pending", repository.ErrTransactionNotPending, http.StatusConflict, ""},
		{"lead closed", service.ErrLeadNotOpen, http.StatusConflict, ""},
		{"lead not found", repository.ErrLeadNotFound, http.StatusNotFound, ""},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"unknown plan in catalog", fmt.Errorf("%w: GOLD", config.ErrUnknownPlan), http.StatusInternalServerError, "internal error"},
		{"unknown action", billing.ErrUnknownAction, http.StatusInternalServerError, "internal error"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { respondError(c, discardLogger(), tt.err) })

			w := doJSON(t, r, http.MethodGet, "/", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode(t, w)["error"])
			}
		})
	}
}

func TestRespondError_QuotaBody(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		respondError(c, discardLogger(), billing.Decision{
			Allowed:  false,
			Reason:   billing.ReasonLimitReached,
			Resource: string(config.LimitActiveListings),
			Limit:    2,
			Current:  2,
		}.Err())
	})

	w := doJSON(t, r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	body := decode(t, w)
	assert.Equal(t, "LIMIT_REACHED", body["reason"])
	assert.Equal(t, "ACTIVE_LISTINGS", body["resource"])
	assert.Equal(t, float64(2), body["limit"])
	assert.Equal(t, float64(2), body["current"])
}

// ==================== Plans ====================

func planRouter() *gin.Engine {
	// ListPlans only reads the catalog
	subs := service.NewSubscriptionService(nil, nil, nil, nil, nil, nil, discardLogger())
	h := NewPlanHandler(subs, discardLogger())

	r := gin.New()
	r.GET("/plans", h.GetAllPlans)
	r.GET("/plans/:category", h.GetCategoryPlans)
	return r
}

func TestPlanHandler_GetAllPlans(t *testing.T) {
	w := doJSON(t, planRouter(), http.MethodGet, "/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Categories []struct {
			Category string           `json:"category"`
			Plans    []map[string]any `json:"plans"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Categories, 4)
	assert.Equal(t, "BUYER", body.Categories[0].Category)
	assert.Equal(t, "SELLER", body.Categories[1].Category)
	assert.Equal(t, "AGENT", body.Categories[2].Category)
	assert.Equal(t, "PROFESSIONAL", body.Categories[3].Category)
}

func TestPlanHandler_GetCategoryPlans(t *testing.T) {
	w := doJSON(t, planRouter(), http.MethodGet, "/plans/seller", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Category string           `json:"category"`
		Plans    []map[string]any `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SELLER", body.Category)
	require.Len(t, body.Plans, 4)

	free := body.Plans[0]
	assert.Equal(t, "FREE", free["id"])
	assert.Equal(t, "0.00", free["price_ghs"])
	assert.Equal(t, float64(500), free["transaction_fee_bps"])
	assert.NotContains(t, free, "commission_bps")
	limits := free["limits"].(map[string]any)
	assert.Equal(t, float64(2), limits["ACTIVE_LISTINGS"])

	w = doJSON(t, planRouter(), http.MethodGet, "/plans/landlord", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Listings ====================

type mockListingService struct {
	mock.Mock
}

func (m *mockListingService) CreateListing(ctx context.Context, sellerID uint, input service.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, sellerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockListingService) ListMyListings(sellerID uint, status *models.ListingStatus) ([]models.Listing, error) {
	args := m.Called(sellerID, status)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *mockListingService) ArchiveListing(sellerID, listingID uint) error {
	return m.Called(sellerID, listingID).Error(0)
}

func (m *mockListingService) FeatureListing(ctx context.Context, sellerID, listingID uint) (*models.Listing, error) {
	args := m.Called(ctx, sellerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func listingRouter(svc service.ListingService) *gin.Engine {
	h := NewListingHandler(svc, discardLogger())
	r := gin.New()
	r.Use(withUser(7))
	r.POST("/listings", h.CreateListing)
	r.GET("/listings", h.ListMyListings)
	r.POST("/listings/:listing_id/archive", h.ArchiveListing)
	return r
}

func TestListingHandler_CreateListing(t *testing.T) {
	svc := new(mockListingService)
	svc.On("CreateListing", mock.Anything, uint(7), mock.MatchedBy(func(in service.ListingInput) bool {
		return in.Title == "Plot at Oyarifa" && in.Price == billing.FromCedis(85_000)
	})).Return(&models.Listing{ID: 1, SellerID: 7, Title: "Plot at Oyarifa", Price: billing.FromCedis(85_000)}, nil)

	w := doJSON(t, listingRouter(svc), http.MethodPost, "/listings", gin.H{
		"title":     "Plot at Oyarifa",
		"region":    "Greater Accra",
		"area_sqm":  450,
		"price_ghs": "85000.00",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	listing := decode(t, w)["listing"].(map[string]any)
	assert.Equal(t, "85000.00", listing["price_ghs"])
	svc.AssertExpectations(t)
}

func TestListingHandler_CreateListing_Validation(t *testing.T) {
	svc := new(mockListingService)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"region": "Ashanti", "area_sqm": 100, "price_ghs": "10.00"}},
		{"zero area", gin.H{"title": "Plot", "region": "Ashanti", "area_sqm": 0, "price_ghs": "10.00"}},
		{"malformed price", gin.H{"title": "Plot", "region": "Ashanti", "area_sqm": 100, "price_ghs": "ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, listingRouter(svc), http.MethodPost, "/listings", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	svc.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestListingHandler_CreateListing_ZeroPrice(t *testing.T) {
	svc := new(mockListingService)
	svc.On("CreateListing", mock.Anything, uint(7), mock.MatchedBy(func(in service.ListingInput) bool {
		return in.Price == 0
	})).Return(nil, billing.ErrInvalidAmount)

	w := doJSON(t, listingRouter(svc), http.MethodPost, "/listings", gin.H{
		"title": "Plot", "region": "Ashanti", "area_sqm": 100, "price_ghs": "0.00",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, billing.ErrInvalidAmount.Error(), decode(t, w)["error"])
	svc.AssertExpectations(t)
}

func TestListingHandler_CreateListing_QuotaDenied(t *testing.T) {
	svc := new(mockListingService)
	denial := billing.Decision{Reason: billing.ReasonLimitReached, Resource: "ACTIVE_LISTINGS", Limit: 2, Current: 2}.Err()
	svc.On("CreateListing", mock.Anything, uint(7), mock.Anything).Return(nil, denial)

	w := doJSON(t, listingRouter(svc), http.MethodPost, "/listings", gin.H{
		"title": "Third plot", "region": "Central", "area_sqm": 300, "price_ghs": 12000,
	})

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "LIMIT_REACHED", decode(t, w)["reason"])
}

func TestListingHandler_ListMyListings_StatusFilter(t *testing.T) {
	svc := new(mockListingService)
	sold := models.ListingSold
	svc.On("ListMyListings", uint(7), &sold).Return([]models.Listing{{ID: 3, Status: models.ListingSold}}, nil)

	w := doJSON(t, listingRouter(svc), http.MethodGet, "/listings?status=sold", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = doJSON(t, listingRouter(svc), http.MethodGet, "/listings?status=pending", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingHandler_ArchiveListing(t *testing.T) {
	svc := new(mockListingService)
	svc.On("ArchiveListing", uint(7), uint(5)).Return(nil)
	svc.On("ArchiveListing", uint(7), uint(6)).Return(service.ErrNotOwner)

	r := listingRouter(svc)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/listings/5/archive", nil).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodPost, "/listings/6/archive", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/listings/abc/archive", nil).Code)
}

// ==================== Transactions ====================

type mockTransactionService struct {
	mock.Mock
}

func (m *mockTransactionService) QuoteFee(sellerID uint, amount billing.Amount, planID *config.PlanID) (billing.FeeBreakdown, error) {
	args := m.Called(sellerID, amount, planID)
	return args.Get(0).(billing.FeeBreakdown), args.Error(1)
}

func (m *mockTransactionService) RecordSale(ctx context.Context, sellerID uint, input service.SaleInput) (*models.Transaction, error) {
	args := m.Called(ctx, sellerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionService) CompleteTransaction(ctx context.Context, reference uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionService) GetTransaction(userID uint, reference uuid.UUID) (*models.Transaction, error) {
	args := m.Called(userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionService) ListTransactions(userID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	args := m.Called(userID, page, pageSize)
	return args.Get(0).([]models.Transaction), args.Get(1).(int64), args.Error(2)
}

func TestTransactionHandler_QuoteFee(t *testing.T) {
	svc := new(mockTransactionService)
	pro := config.PlanPro
	amount := billing.FromCedis(100_000)
	svc.On("QuoteFee", uint(7), amount, &pro).Return(billing.FeeBreakdown{
		Amount: amount,
		Fee:    billing.FromCedis(2_500),
		Net:    billing.FromCedis(97_500),
		Rate:   250,
		PlanID: config.PlanPro,
	}, nil)

	h := NewTransactionHandler(svc, discardLogger())
	r := gin.New()
	r.Use(withUser(7))
	r.POST("/transactions/fee-quote", h.QuoteFee)

	w := doJSON(t, r, http.MethodPost, "/transactions/fee-quote", gin.H{"amount_ghs": "100000.00", "plan_id": "pro"})
	require.Equal(t, http.StatusOK, w.Code)

	quote := decode(t, w)["quote"].(map[string]any)
	assert.Equal(t, "2500.00", quote["fee_ghs"])
	assert.Equal(t, "97500.00", quote["net_ghs"])
	assert.Equal(t, float64(250), quote["rate_bps"])
	svc.AssertExpectations(t)
}

func TestTransactionHandler_QuoteFee_NegativeAmount(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("QuoteFee", uint(7), billing.Amount(-500), (*config.PlanID)(nil)).
		Return(billing.FeeBreakdown{}, fmt.Errorf("%w: -5.00", billing.ErrInvalidAmount))

	h := NewTransactionHandler(svc, discardLogger())
	r := gin.New()
	r.Use(withUser(7))
	r.POST("/transactions/fee-quote", h.QuoteFee)

	w := doJSON(t, r, http.MethodPost, "/transactions/fee-quote", gin.H{"amount_ghs": "-5.00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionHandler_ZeroAmountReachesFeeEngine(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"zero", gin.H{"amount_ghs": "0.00"}},
		{"omitted", gin.H{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockTransactionService)
			svc.On("QuoteFee", uint(7), billing.Amount(0), (*config.PlanID)(nil)).
				Return(billing.FeeBreakdown{}, fmt.Errorf("%w: 0.00", billing.ErrInvalidAmount))

			h := NewTransactionHandler(svc, discardLogger())
			r := gin.New()
			r.Use(withUser(7))
			r.POST("/transactions/fee-quote", h.QuoteFee)

			w := doJSON(t, r, http.MethodPost, "/transactions/fee-quote", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "amount must be greater than zero: 0.00", decode(t, w)["error"])
			svc.AssertExpectations(t)
		})
	}
}

func TestTransactionHandler_RecordSale_ZeroAmount(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("RecordSale", mock.Anything, uint(7), service.SaleInput{ListingID: 3, BuyerID: 9, Amount: 0}).
		Return(nil, fmt.Errorf("%w: 0.00", billing.ErrInvalidAmount))

	h := NewTransactionHandler(svc, discardLogger())
	r := gin.New()
	r.Use(withUser(7))
	r.POST("/transactions", h.RecordSale)

	w := doJSON(t, r, http.MethodPost, "/transactions", gin.H{"listing_id": 3, "buyer_id": 9, "amount_ghs": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "amount must be greater than zero: 0.00", decode(t, w)["error"])
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	svc := new(mockTransactionService)
	ref := uuid.New()
	missing := uuid.New()
	svc.On("GetTransaction", uint(7), ref).Return(&models.Transaction{Reference: ref, Status: models.TransactionPending}, nil)
	svc.On("GetTransaction", uint(7), missing).Return(nil, repository.ErrTransactionNotFound)

	h := NewTransactionHandler(svc, discardLogger())
	r := gin.New()
	r.Use(withUser(7))
	r.GET("/transactions/:reference", h.GetTransaction)

	w := doJSON(t, r, http.MethodGet, "/transactions/"+ref.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", decode(t, w)["transaction"].(map[string]any)["status"])

	w = doJSON(t, r, http.MethodGet, "/transactions/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/transactions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("ListTransactions", uint(7), 2, 10).Return([]models.Transaction{}, int64(11), nil)

	h := NewTransactionHandler(svc, discardLogger())
	r := gin.New()
	r.Use(withUser(7))
	r.GET("/transactions", h.ListTransactions)

	w := doJSON(t, r, http.MethodGet, "/transactions?page=2&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(11), decode(t, w)["total"])
}

func TestAdminHandler_CompleteTransaction(t *testing.T) {
	svc := new(mockTransactionService)
	ref := uuid.New()
	svc.On("CompleteTransaction", mock.Anything, ref).Return(&models.Transaction{Reference: ref, Status: models.TransactionCompleted}, nil)

	h := NewAdminHandler(nil, svc, discardLogger())
	r := gin.New()
	r.POST("/admin/transactions/:reference/complete", h.CompleteTransaction)

	w := doJSON(t, r, http.MethodPost, "/admin/transactions/"+ref.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETED", decode(t, w)["transaction"].(map[string]any)["status"])

	w = doJSON(t, r, http.MethodPost, "/admin/transactions/not-a-uuid/complete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrentUserID_Missing(t *testing.T) {
	h := NewTransactionHandler(new(mockTransactionService), discardLogger())
	r := gin.New()
	r.GET("/transactions", h.ListTransactions)

	w := doJSON(t, r, http.MethodGet, "/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
