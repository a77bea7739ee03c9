package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/billing"
)

// AgentClient is a buyer or seller represented by an agent
type AgentClient struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	AgentID   uint           `gorm:"not null;index:idx_agent_client_active" json:"agent_id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `json:"phone,omitempty"`
	Email     string         `json:"email,omitempty"`
	Regions   pq.StringArray `gorm:"type:text[];default:'{}'" json:"regions"` // Regions the client is interested in
	Active    bool           `gorm:"not null;default:true;index:idx_agent_client_active" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (AgentClient) TableName() string {
	return "agent_clients"
}

// LeadStatus is the state of a professional's lead
type LeadStatus string

const (
	LeadOpen   LeadStatus = "OPEN"
	LeadClosed LeadStatus = "CLOSED"
)

// ProfessionalLead is a service request (survey, legal search, valuation)
// accepted by a professional
type ProfessionalLead struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	ProfessionalID uint           `gorm:"not null;index:idx_professional_lead_status" json:"professional_id"`
	RequesterID    uint           `gorm:"not null;index" json:"requester_id"`
	ListingID      *uint          `gorm:"index" json:"listing_id,omitempty"`
	Service        string         `gorm:"not null" json:"service"`
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`
	QuotedFee      billing.Amount `gorm:"column:quoted_fee_pesewas;not null;default:0" json:"quoted_fee_ghs"`
	Status         LeadStatus     `gorm:"not null;default:OPEN;index:idx_professional_lead_status" json:"status"`
	ClosedAt       *time.Time     `json:"closed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (ProfessionalLead) TableName() string {
	return "professional_leads"
}
