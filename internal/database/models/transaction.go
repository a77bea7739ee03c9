package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// TransactionStatus is the settlement state of a land sale
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

// Transaction records a sale together with the fee snapshot taken when it was
// recorded, so later plan changes never rewrite settled amounts.
type Transaction struct {
	ID          uint              `gorm:"primarykey" json:"-"`
	Reference   uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"reference"`
	ListingID   uint              `gorm:"not null;index" json:"listing_id"`
	BuyerID     uint              `gorm:"not null;index" json:"buyer_id"`
	SellerID    uint              `gorm:"not null;index" json:"seller_id"`
	Amount      billing.Amount    `gorm:"column:amount_pesewas;not null" json:"amount_ghs"`
	Fee         billing.Amount    `gorm:"column:fee_pesewas;not null" json:"fee_ghs"`
	Net         billing.Amount    `gorm:"column:net_pesewas;not null" json:"net_ghs"`
	FeeRate     billing.Rate      `gorm:"column:fee_rate_bps;not null" json:"fee_rate_bps"`
	SellerPlan  config.PlanID     `gorm:"not null" json:"seller_plan"`
	Status      TransactionStatus `gorm:"not null;default:PENDING;index" json:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relationships
	Listing Listing `gorm:"foreignKey:ListingID" json:"-"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate hook to generate the public reference before insert
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.Reference == uuid.Nil {
		t.Reference = uuid.New()
	}
	return nil
}
