package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
)

// PlanService handles plan business logic.
type PlanService struct {
	campaigns repository.CampaignRepository
	plans     repository.PlanRepository
	log       zerolog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(campaigns repository.CampaignRepository, plans repository.PlanRepository, log zerolog.Logger) *PlanService {
	return &PlanService{
		campaigns: campaigns,
		plans:     plans,
		log:       log,
	}
}

// CreatePlanInput represents input for creating a plan. An empty name is
// replaced by Plan<N>.
type CreatePlanInput struct {
	ActorID     uint64
	CampaignID  uint64
	Name        string
	Description string
	Budget      decimal.NullDecimal
}

// UpdatePlanInput represents input for updating a plan.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	Budget      *decimal.NullDecimal
	Status      *models.PlanStatus
}

// CreatePlan adds a plan to a campaign owned by the actor.
func (s *PlanService) CreatePlan(ctx context.Context, input CreatePlanInput) (*models.Plan, error) {
	campaign, err := loadCampaign(ctx, s.campaigns, input.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(&campaign.Project, input.ActorID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name != "" {
		if name, err = validName(name); err != nil {
			return nil, err
		}
	}
	if err := validBudget(input.Budget); err != nil {
		return nil, err
	}

	plan := &models.Plan{
		Name:        name,
		CampaignID:  campaign.ID,
		Description: input.Description,
		Budget:      input.Budget,
		Status:      models.PlanStatusDraft,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns a plan with its campaign.
func (s *PlanService) GetPlan(ctx context.Context, id uint64) (*models.Plan, error) {
	return loadPlan(ctx, s.plans, id)
}

// ListPlans lists a campaign's plans in creation order.
func (s *PlanService) ListPlans(ctx context.Context, campaignID uint64) ([]models.Plan, error) {
	if _, err := loadCampaign(ctx, s.campaigns, campaignID); err != nil {
		return nil, err
	}
	plans, err := s.plans.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// UpdatePlan applies the supplied changes when the actor owns the project.
func (s *PlanService) UpdatePlan(ctx context.Context, actorID, id uint64, input UpdatePlanInput) (*models.Plan, error) {
	plan, err := loadPlan(ctx, s.plans, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(&plan.Campaign.Project, actorID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validName(*input.Name)
		if err != nil {
			return nil, err
		}
		plan.Name = name
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Budget != nil {
		if err := validBudget(*input.Budget); err != nil {
			return nil, err
		}
		plan.Budget = *input.Budget
	}
	if input.Status != nil {
		switch *input.Status {
		case models.PlanStatusDraft, models.PlanStatusApproved:
			plan.Status = *input.Status
		default:
			return nil, apierrors.Field("status", "must be draft or approved")
		}
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

func validBudget(budget decimal.NullDecimal) error {
	if budget.Valid && budget.Decimal.IsNegative() {
		return apierrors.Field("budget", "must not be negative")
	}
	return nil
}
