package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	CreateWithinLimit(listing *models.Listing, limit config.Limit) error
	FindByID(id uint) (*models.Listing, error)
	ListBySeller(sellerID uint, status *models.ListingStatus) ([]models.Listing, error)
	CountActiveBySeller(sellerID uint) (int64, error)
	UpdateStatus(id uint, status models.ListingStatus) error
	MarkFeatured(id uint, at time.Time) error
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository instance
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// CreateWithinLimit inserts the listing only if the seller still has fewer
// active listings than limit once the seller row is locked
func (r *listingRepository) CreateWithinLimit(listing *models.Listing, limit config.Limit) error {
	return createWithinLimit(r.db, listing.SellerID, limit,
		func(tx *gorm.DB) (int64, error) {
			return countActiveListings(tx, listing.SellerID)
		},
		func(tx *gorm.DB) error {
			return tx.Create(listing).Error
		},
	)
}

func (r *listingRepository) FindByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.First(&listing, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) ListBySeller(sellerID uint, status *models.ListingStatus) ([]models.Listing, error) {
	var listings []models.Listing
	query := r.db.Where("seller_id = ?", sellerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at DESC").Find(&listings).Error
	return listings, err
}

func (r *listingRepository) CountActiveBySeller(sellerID uint) (int64, error) {
	return countActiveListings(r.db, sellerID)
}

func (r *listingRepository) UpdateStatus(id uint, status models.ListingStatus) error {
	result := r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) MarkFeatured(id uint, at time.Time) error {
	result := r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_featured": true,
			"featured_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func countActiveListings(db *gorm.DB, sellerID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Listing{}).
		Where("seller_id = ? AND status = ?", sellerID, models.ListingActive).
		Count(&count).Error
	return count, err
}

var ErrListingNotFound = errors.New("listing not found")
