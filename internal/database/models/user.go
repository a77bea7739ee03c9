package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
)

// User represents a marketplace account. The subscription fields are the
// persisted state the billing engine reads.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName  string         `gorm:"not null" json:"full_name"`
	Phone     *string        `gorm:"uniqueIndex" json:"phone,omitempty"` // E.164
	Password  string         `gorm:"not null" json:"-"`
	IsAdmin   bool           `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Subscription fields
	Category           config.Category           `gorm:"not null;default:BUYER" json:"category"`
	PlanID             config.PlanID             `gorm:"not null;default:FREE" json:"plan_id"`
	SubscriptionStatus config.SubscriptionStatus `gorm:"not null;default:ACTIVE" json:"subscription_status"`
	CycleEnd           *time.Time                `json:"cycle_end,omitempty"`
	PaymentCustomerRef *string                   `json:"-"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// Subscription returns the user's persisted subscription state
func (u *User) Subscription() billing.SubscriptionState {
	return billing.SubscriptionState{
		UserID:   u.ID,
		Category: u.Category,
		PlanID:   u.PlanID,
		Status:   u.SubscriptionStatus,
		CycleEnd: u.CycleEnd,
	}
}

// EffectivePlan returns the plan whose rules apply to the user at now
func (u *User) EffectivePlan(now time.Time) (config.PlanDefinition, error) {
	return billing.EffectivePlan(u.Subscription(), now)
}
