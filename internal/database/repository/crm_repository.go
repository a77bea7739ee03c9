package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/models"
)

// CRMRepository defines data operations for agent clients and professional leads
type CRMRepository interface {
	// Agent clients
	CountActiveClients(agentID uint) (int64, error)
	CreateClientWithinLimit(client *models.AgentClient, limit config.Limit) error
	ListClients(agentID uint) ([]models.AgentClient, error)
	DeactivateClient(agentID, clientID uint) error

	// Professional leads
	CountOpenLeads(professionalID uint) (int64, error)
	CreateLeadWithinLimit(lead *models.ProfessionalLead, limit config.Limit) error
	FindLead(professionalID, leadID uint) (*models.ProfessionalLead, error)
	ListLeads(professionalID uint, status *models.LeadStatus) ([]models.ProfessionalLead, error)
	CloseLead(professionalID, leadID uint, at time.Time) error
}

type crmRepository struct {
	db *gorm.DB
}

// NewCRMRepository creates a new CRM repository instance
func NewCRMRepository(db *gorm.DB) CRMRepository {
	return &crmRepository{db: db}
}

// ==================== Agent Clients ====================

func (r *crmRepository) CountActiveClients(agentID uint) (int64, error) {
	return countActiveClients(r.db, agentID)
}

func (r *crmRepository) CreateClientWithinLimit(client *models.AgentClient, limit config.Limit) error {
	return createWithinLimit(r.db, client.AgentID, limit,
		func(tx *gorm.DB) (int64, error) {
			return countActiveClients(tx, client.AgentID)
		},
		func(tx *gorm.DB) error {
			return tx.Create(client).Error
		},
	)
}

func (r *crmRepository) ListClients(agentID uint) ([]models.AgentClient, error) {
	var clients []models.AgentClient
	err := r.db.Where("agent_id = ?", agentID).
		Order("active DESC, created_at DESC").
		Find(&clients).Error
	return clients, err
}

func (r *crmRepository) DeactivateClient(agentID, clientID uint) error {
	result := r.db.Model(&models.AgentClient{}).
		Where("id = ? AND agent_id = ?", clientID, agentID).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

func countActiveClients(db *gorm.DB, agentID uint) (int64, error) {
	var count int64
	err := db.Model(&models.AgentClient{}).
		Where("agent_id = ? AND active = ?", agentID, true).
		Count(&count).Error
	return count, err
}

// ==================== Professional Leads ====================

func (r *crmRepository) CountOpenLeads(professionalID uint) (int64, error) {
	return countOpenLeads(r.db, professionalID)
}

func (r *crmRepository) CreateLeadWithinLimit(lead *models.ProfessionalLead, limit config.Limit) error {
	return createWithinLimit(r.db, lead.ProfessionalID, limit,
		func(tx *gorm.DB) (int64, error) {
			return countOpenLeads(tx, lead.ProfessionalID)
		},
		func(tx *gorm.DB) error {
			return tx.Create(lead).Error
		},
	)
}

func (r *crmRepository) FindLead(professionalID, leadID uint) (*models.ProfessionalLead, error) {
	var lead models.ProfessionalLead
	err := r.db.Where("id = ? AND professional_id = ?", leadID, professionalID).First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (r *crmRepository) ListLeads(professionalID uint, status *models.LeadStatus) ([]models.ProfessionalLead, error) {
	var leads []models.ProfessionalLead
	query := r.db.Where("professional_id = ?", professionalID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at DESC").Find(&leads).Error
	return leads, err
}

func (r *crmRepository) CloseLead(professionalID, leadID uint, at time.Time) error {
	result := r.db.Model(&models.ProfessionalLead{}).
		Where("id = ? AND professional_id = ? AND status = ?", leadID, professionalID, models.LeadOpen).
		Updates(map[string]any{
			"status":    models.LeadClosed,
			"closed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func countOpenLeads(db *gorm.DB, professionalID uint) (int64, error) {
	var count int64
	err := db.Model(&models.ProfessionalLead{}).
		Where("professional_id = ? AND status = ?", professionalID, models.LeadOpen).
		Count(&count).Error
	return count, err
}

var (
	ErrClientNotFound = errors.New("client not found")
	ErrLeadNotFound   = errors.New("lead not found")
)
