package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/events"
)

// TransactionService defines the interface for land sale business logic
type TransactionService interface {
	QuoteFee(sellerID uint, amount billing.Amount, planID *config.PlanID) (billing.FeeBreakdown, error)
	RecordSale(ctx context.Context, sellerID uint, input SaleInput) (*models.Transaction, error)
	CompleteTransaction(ctx context.Context, reference uuid.UUID) (*models.Transaction, error)
	GetTransaction(userID uint, reference uuid.UUID) (*models.Transaction, error)
	ListTransactions(userID uint, page, pageSize int) ([]models.Transaction, int64, error)
}

// SaleInput is a sale agreed between a seller and a buyer
type SaleInput struct {
	ListingID uint
	BuyerID   uint
	Amount    billing.Amount
}

type transactionService struct {
	transactionRepo repository.TransactionRepository
	listingRepo     repository.ListingRepository
	userRepo        repository.UserRepository
	publisher       events.Publisher
	logger          *slog.Logger
	now             func() time.Time
}

// NewTransactionService creates a new transaction service instance
func NewTransactionService(
	transactionRepo repository.TransactionRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) TransactionService {
	return &transactionService{
		transactionRepo: transactionRepo,
		listingRepo:     listingRepo,
		userRepo:        userRepo,
		publisher:       publisher,
		logger:          logger,
		now:             time.Now,
	}
}

// QuoteFee prices a sale for the seller's current plan, or for planID when the
// seller wants to compare tiers
func (s *transactionService) QuoteFee(sellerID uint, amount billing.Amount, planID *config.PlanID) (billing.FeeBreakdown, error) {
	seller, plan, err := loadUserPlan(s.userRepo, sellerID, s.now())
	if err != nil {
		return billing.FeeBreakdown{}, err
	}
	if err := requireCategory(seller, config.CategorySeller); err != nil {
		return billing.FeeBreakdown{}, err
	}

	quotePlan := plan.ID
	if planID != nil {
		if !config.IsValidPlan(config.CategorySeller, *planID) {
			return billing.FeeBreakdown{}, ErrInvalidPlan
		}
		quotePlan = *planID
	}

	return billing.CalculateTransactionFee(amount, quotePlan)
}

// RecordSale stores a pending sale with the fee snapshot of the seller's plan at this moment
func (s *transactionService) RecordSale(ctx context.Context, sellerID uint, input SaleInput) (*models.Transaction, error) {
	s.logger.Info("💰 [TransactionService] Recording sale",
		"seller_id", sellerID,
		"listing_id", input.ListingID,
		"amount", input.Amount,
	)

	now := s.now()
	seller, plan, err := loadUserPlan(s.userRepo, sellerID, now)
	if err != nil {
		return nil, err
	}
	if err := requireCategory(seller, config.CategorySeller); err != nil {
		return nil, err
	}
	if input.BuyerID == sellerID {
		return nil, ErrSelfPurchase
	}

	listing, err := s.listingRepo.FindByID(input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, ErrNotOwner
	}
	if listing.Status != models.ListingActive {
		return nil, ErrListingNotActive
	}

	if _, err := s.userRepo.FindByID(input.BuyerID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrBuyerNotFound
		}
		return nil, err
	}

	fee, err := billing.CalculateTransactionFee(input.Amount, plan.ID)
	if err != nil {
		if !errors.Is(err, billing.ErrInvalidAmount) {
			s.logger.Error("❌ [TransactionService] Fee calculation failed", "plan_id", plan.ID, "error", err)
		}
		return nil, err
	}

	txn := &models.Transaction{
		ListingID:  listing.ID,
		BuyerID:    input.BuyerID,
		SellerID:   sellerID,
		Amount:     fee.Amount,
		Fee:        fee.Fee,
		Net:        fee.Net,
		FeeRate:    fee.Rate,
		SellerPlan: fee.PlanID,
		Status:     models.TransactionPending,
	}
	if err := s.transactionRepo.Create(txn); err != nil {
		s.logger.Error("❌ [TransactionService] Failed to store transaction", "error", err)
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, events.New(events.TransactionRecorded, sellerID, now, map[string]any{
		"reference":   txn.Reference,
		"listing_id":  txn.ListingID,
		"buyer_id":    txn.BuyerID,
		"amount_ghs":  txn.Amount,
		"amount_p":    txn.Amount.Pesewas(),
		"fee_ghs":     txn.Fee,
		"net_ghs":     txn.Net,
		"rate_bps":    txn.FeeRate,
		"seller_plan": txn.SellerPlan,
	}))

	s.logger.Info("✅ [TransactionService] Sale recorded",
		"reference", txn.Reference,
		"fee", txn.Fee,
		"plan_id", txn.SellerPlan,
	)
	return txn, nil
}

// CompleteTransaction settles a pending sale. The stored fee snapshot is kept
// even if the seller's plan has changed since.
func (s *transactionService) CompleteTransaction(ctx context.Context, reference uuid.UUID) (*models.Transaction, error) {
	now := s.now()
	txn, err := s.transactionRepo.Complete(reference, now)
	if err != nil {
		s.logger.Warn("⚠️ [TransactionService] Failed to complete transaction", "reference", reference, "error", err)
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, events.New(events.TransactionCompleted, txn.SellerID, now, map[string]any{
		"reference":  txn.Reference,
		"listing_id": txn.ListingID,
		"fee_ghs":    txn.Fee,
		"net_ghs":    txn.Net,
	}))

	s.logger.Info("✅ [TransactionService] Transaction completed", "reference", reference)
	return txn, nil
}

// GetTransaction returns a sale the user took part in. Other users' sales
// read as not found.
func (s *transactionService) GetTransaction(userID uint, reference uuid.UUID) (*models.Transaction, error) {
	txn, err := s.transactionRepo.FindByReference(reference)
	if err != nil {
		return nil, err
	}
	if txn.BuyerID != userID && txn.SellerID != userID {
		s.logger.Warn("⚠️ [TransactionService] Transaction lookup by non-party", "user_id", userID, "reference", reference)
		return nil, repository.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *transactionService) ListTransactions(userID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.transactionRepo.ListByUser(userID, (page-1)*pageSize, pageSize)
}

var (
	ErrSelfPurchase  = errors.New("seller cannot buy their own listing")
	ErrBuyerNotFound = errors.New("buyer not found")
)
