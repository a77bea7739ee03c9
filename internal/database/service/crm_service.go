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

// CRMService defines the interface for agent client and professional lead business logic
type CRMService interface {
	// Agents
	AddClient(ctx context.Context, agentID uint, input ClientInput) (*models.AgentClient, error)
	ListClients(agentID uint) ([]models.AgentClient, error)
	RemoveClient(agentID, clientID uint) error

	// Professionals
	AcceptLead(ctx context.Context, professionalID uint, input LeadInput) (*models.ProfessionalLead, error)
	CloseLead(professionalID, leadID uint) error
	ListLeads(professionalID uint, status *models.LeadStatus) ([]models.ProfessionalLead, error)
	QuoteCommission(professionalID uint, amount billing.Amount) (billing.FeeBreakdown, error)
}

// ClientInput is a buyer or seller an agent takes on
type ClientInput struct {
	Name    string
	Phone   string
	Email   string
	Regions []string
}

// LeadInput is a service request a professional accepts
type LeadInput struct {
	RequesterID uint
	ListingID   *uint
	Service     string
	Notes       string
	QuotedFee   billing.Amount
}

type crmService struct {
	crmRepo   repository.CRMRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCRMService creates a new CRM service instance
func NewCRMService(
	crmRepo repository.CRMRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) CRMService {
	return &crmService{
		crmRepo:   crmRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ==================== Agents ====================

func (s *crmService) AddClient(ctx context.Context, agentID uint, input ClientInput) (*models.AgentClient, error) {
	s.logger.Info("🤝 [CRMService] Adding client", "agent_id", agentID)

	now := s.now()
	agent, plan, err := loadUserPlan(s.userRepo, agentID, now)
	if err != nil {
		return nil, err
	}
	if err := requireCategory(agent, config.CategoryAgent); err != nil {
		return nil, err
	}

	count, err := s.crmRepo.CountActiveClients(agentID)
	if err != nil {
		s.logger.Error("❌ [CRMService] Failed to count clients", "agent_id", agentID, "error", err)
		return nil, err
	}

	decision, err := billing.CanAddClient(count, plan.ID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Warn("⚠️ [CRMService] Client limit reached", "agent_id", agentID, "plan_id", plan.ID, "limit", decision.Limit)
		publishDenial(ctx, s.publisher, s.logger, agentID, plan, decision, now)
		return nil, decision.Err()
	}

	client := &models.AgentClient{
		AgentID: agentID,
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		Regions: input.Regions,
		Active:  true,
	}
	if client.Regions == nil {
		client.Regions = []string{}
	}

	if err := s.crmRepo.CreateClientWithinLimit(client, decision.Limit); err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			return nil, limitDenial(config.LimitActiveClients, err)
		}
		s.logger.Error("❌ [CRMService] Failed to add client", "agent_id", agentID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [CRMService] Client added", "agent_id", agentID, "client_id", client.ID)
	return client, nil
}

func (s *crmService) ListClients(agentID uint) ([]models.AgentClient, error) {
	return s.crmRepo.ListClients(agentID)
}

func (s *crmService) RemoveClient(agentID, clientID uint) error {
	if err := s.crmRepo.DeactivateClient(agentID, clientID); err != nil {
		return err
	}
	s.logger.Info("👋 [CRMService] Client deactivated", "agent_id", agentID, "client_id", clientID)
	return nil
}

// ==================== Professionals ====================

func (s *crmService) AcceptLead(ctx context.Context, professionalID uint, input LeadInput) (*models.ProfessionalLead, error) {
	s.logger.Info("📋 [CRMService] Accepting lead", "professional_id", professionalID, "service", input.Service)

	now := s.now()
	professional, plan, err := loadUserPlan(s.userRepo, professionalID, now)
	if err != nil {
		return nil, err
	}
	if err := requireCategory(professional, config.CategoryProfessional); err != nil {
		return nil, err
	}
	if input.QuotedFee < 0 {
		return nil, billing.ErrInvalidAmount
	}
	if _, err := s.userRepo.FindByID(input.RequesterID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrRequesterNotFound
		}
		return nil, err
	}

	count, err := s.crmRepo.CountOpenLeads(professionalID)
	if err != nil {
		return nil, err
	}

	decision, err := billing.CanAcceptLead(count, plan.ID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Warn("⚠️ [CRMService] Lead limit reached", "professional_id", professionalID, "plan_id", plan.ID, "limit", decision.Limit)
		publishDenial(ctx, s.publisher, s.logger, professionalID, plan, decision, now)
		return nil, decision.Err()
	}

	lead := &models.ProfessionalLead{
		ProfessionalID: professionalID,
		RequesterID:    input.RequesterID,
		ListingID:      input.ListingID,
		Service:        input.Service,
		Notes:          input.Notes,
		QuotedFee:      input.QuotedFee,
		Status:         models.LeadOpen,
	}

	if err := s.crmRepo.CreateLeadWithinLimit(lead, decision.Limit); err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			return nil, limitDenial(config.LimitOpenLeads, err)
		}
		s.logger.Error("❌ [CRMService] Failed to accept lead", "professional_id", professionalID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [CRMService] Lead accepted", "professional_id", professionalID, "lead_id", lead.ID)
	return lead, nil
}

func (s *crmService) CloseLead(professionalID, leadID uint) error {
	lead, err := s.crmRepo.FindLead(professionalID, leadID)
	if err != nil {
		return err
	}
	if lead.Status != models.LeadOpen {
		s.logger.Warn("⚠️ [CRMService] Lead already closed", "professional_id", professionalID, "lead_id", leadID)
		return ErrLeadNotOpen
	}

	if err := s.crmRepo.CloseLead(professionalID, leadID, s.now()); err != nil {
		// Closed by a concurrent request after the read
		if errors.Is(err, repository.ErrLeadNotFound) {
			return ErrLeadNotOpen
		}
		return err
	}
	s.logger.Info("✅ [CRMService] Lead closed", "professional_id", professionalID, "lead_id", leadID)
	return nil
}

func (s *crmService) ListLeads(professionalID uint, status *models.LeadStatus) ([]models.ProfessionalLead, error) {
	return s.crmRepo.ListLeads(professionalID, status)
}

// QuoteCommission prices the platform's cut of a service fee for the professional's current plan
func (s *crmService) QuoteCommission(professionalID uint, amount billing.Amount) (billing.FeeBreakdown, error) {
	professional, plan, err := loadUserPlan(s.userRepo, professionalID, s.now())
	if err != nil {
		return billing.FeeBreakdown{}, err
	}
	if err := requireCategory(professional, config.CategoryProfessional); err != nil {
		return billing.FeeBreakdown{}, err
	}
	return billing.CalculateProfessionalCommission(amount, plan.ID)
}

var (
	ErrRequesterNotFound = errors.New("requester not found")
	ErrLeadNotOpen       = errors.New("lead is already closed")
)
