package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
)

// ListingStatus is the lifecycle state of a land listing
type ListingStatus string

const (
	ListingActive   ListingStatus = "ACTIVE"
	ListingSold     ListingStatus = "SOLD"
	ListingArchived ListingStatus = "ARCHIVED"
)

// Listing is a parcel of land offered for sale by a seller
type Listing struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	SellerID    uint           `gorm:"not null;index:idx_listing_seller_status" json:"seller_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Region      string         `gorm:"not null;index" json:"region"`
	Locality    string         `json:"locality,omitempty"`
	AreaSqm     int64          `gorm:"not null" json:"area_sqm"`
	Price       billing.Amount `gorm:"column:price_pesewas;not null" json:"price_ghs"`
	Tags        pq.StringArray `gorm:"type:text[];default:'{}'" json:"tags"`
	Status      ListingStatus  `gorm:"not null;default:ACTIVE;index:idx_listing_seller_status" json:"status"`
	IsFeatured  bool           `gorm:"not null;default:false" json:"is_featured"`
	FeaturedAt  *time.Time     `json:"featured_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Seller User `gorm:"foreignKey:SellerID" json:"-"`
}

// TableName overrides the table name
func (Listing) TableName() string {
	return "listings"
}
