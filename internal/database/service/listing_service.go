package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/events"
)

// ListingService defines the interface for seller listing business logic
type ListingService interface {
	CreateListing(ctx context.Context, sellerID uint, input ListingInput) (*models.Listing, error)
	ListMyListings(sellerID uint, status *models.ListingStatus) ([]models.Listing, error)
	ArchiveListing(sellerID, listingID uint) error
	FeatureListing(ctx context.Context, sellerID, listingID uint) (*models.Listing, error)
}

// ListingInput is a new land listing
type ListingInput struct {
	Title       string
	Description string
	Region      string
	Locality    string
	AreaSqm     int64
	Price       billing.Amount
	Tags        []string
}

type listingService struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	publisher   events.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewListingService creates a new listing service instance
func NewListingService(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateListing checks the seller's ACTIVE_LISTINGS quota and inserts the listing.
// The advisory check returns the denial early; the guarded insert settles races.
func (s *listingService) CreateListing(ctx context.Context, sellerID uint, input ListingInput) (*models.Listing, error) {
	s.logger.Info("🏷️ [ListingService] Creating listing", "seller_id", sellerID, "region", input.Region)

	now := s.now()
	seller, plan, err := loadUserPlan(s.userRepo, sellerID, now)
	if err != nil {
		s.logger.Error("❌ [ListingService] Failed to resolve seller plan", "seller_id", sellerID, "error", err)
		return nil, err
	}
	if err := requireCategory(seller, config.CategorySeller); err != nil {
		return nil, err
	}
	if input.Price <= 0 {
		return nil, billing.ErrInvalidAmount
	}

	count, err := s.listingRepo.CountActiveBySeller(sellerID)
	if err != nil {
		s.logger.Error("❌ [ListingService] Failed to count listings", "seller_id", sellerID, "error", err)
		return nil, err
	}

	decision, err := billing.CanCreateListing(count, plan.ID)
	if err != nil {
		s.logger.Error("❌ [ListingService] Plan resolution failed", "seller_id", sellerID, "plan_id", plan.ID, "error", err)
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Warn("⚠️ [ListingService] Listing limit reached",
			"seller_id", sellerID,
			"plan_id", plan.ID,
			"current", count,
			"limit", decision.Limit,
		)
		publishDenial(ctx, s.publisher, s.logger, sellerID, plan, decision, now)
		return nil, decision.Err()
	}

	listing := &models.Listing{
		SellerID:    sellerID,
		Title:       input.Title,
		Description: input.Description,
		Region:      input.Region,
		Locality:    input.Locality,
		AreaSqm:     input.AreaSqm,
		Price:       input.Price,
		Tags:        input.Tags,
		Status:      models.ListingActive,
	}
	if listing.Tags == nil {
		listing.Tags = []string{}
	}

	if err := s.listingRepo.CreateWithinLimit(listing, decision.Limit); err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			s.logger.Warn("⚠️ [ListingService] Listing limit reached concurrently", "seller_id", sellerID)
			return nil, limitDenial(config.LimitActiveListings, err)
		}
		s.logger.Error("❌ [ListingService] Failed to create listing", "seller_id", sellerID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [ListingService] Listing created", "listing_id", listing.ID, "seller_id", sellerID)
	return listing, nil
}

func (s *listingService) ListMyListings(sellerID uint, status *models.ListingStatus) ([]models.Listing, error) {
	return s.listingRepo.ListBySeller(sellerID, status)
}

func (s *listingService) ArchiveListing(sellerID, listingID uint) error {
	listing, err := s.ownedListing(sellerID, listingID)
	if err != nil {
		return err
	}
	if listing.Status != models.ListingActive {
		return ErrListingNotActive
	}

	if err := s.listingRepo.UpdateStatus(listing.ID, models.ListingArchived); err != nil {
		s.logger.Error("❌ [ListingService] Failed to archive listing", "listing_id", listingID, "error", err)
		return err
	}

	s.logger.Info("📦 [ListingService] Listing archived", "listing_id", listingID, "seller_id", sellerID)
	return nil
}

// FeatureListing promotes a listing; only plans with FEATURED_LISTINGS may do it
func (s *listingService) FeatureListing(ctx context.Context, sellerID, listingID uint) (*models.Listing, error) {
	now := s.now()
	_, plan, err := loadUserPlan(s.userRepo, sellerID, now)
	if err != nil {
		return nil, err
	}

	listing, err := s.ownedListing(sellerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingActive {
		return nil, ErrListingNotActive
	}

	decision, err := billing.CanUseFeature(plan.Category, plan.ID, config.FeatureFeaturedListings)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Warn("⚠️ [ListingService] Featured listings not in plan", "seller_id", sellerID, "plan_id", plan.ID)
		publishDenial(ctx, s.publisher, s.logger, sellerID, plan, decision, now)
		return nil, decision.Err()
	}

	if err := s.listingRepo.MarkFeatured(listing.ID, now); err != nil {
		return nil, err
	}
	listing.IsFeatured = true
	listing.FeaturedAt = &now

	s.logger.Info("⭐ [ListingService] Listing featured", "listing_id", listingID)
	return listing, nil
}

func (s *listingService) ownedListing(sellerID, listingID uint) (*models.Listing, error) {
	listing, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		s.logger.Warn("⚠️ [ListingService] Listing owned by another seller", "listing_id", listingID, "seller_id", sellerID)
		return nil, ErrNotOwner
	}
	return listing, nil
}

var ErrListingNotActive = errors.New("listing is not active")
