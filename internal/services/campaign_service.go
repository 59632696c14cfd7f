package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
)

// CampaignService handles campaign business logic.
type CampaignService struct {
	projects  repository.ProjectRepository
	campaigns repository.CampaignRepository
	log       zerolog.Logger
}

// NewCampaignService creates a new CampaignService.
func NewCampaignService(projects repository.ProjectRepository, campaigns repository.CampaignRepository, log zerolog.Logger) *CampaignService {
	return &CampaignService{
		projects:  projects,
		campaigns: campaigns,
		log:       log,
	}
}

// CreateCampaignInput represents input for creating a campaign.
type CreateCampaignInput struct {
	ActorID     uint64
	ProjectID   uint64
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	OverallInfo string
}

// UpdateCampaignInput represents input for updating a campaign.
type UpdateCampaignInput struct {
	Name        *string
	StartDate   *time.Time
	EndDate     *time.Time
	OverallInfo *string
	Status      *models.CampaignStatus
}

// CreateCampaign adds a campaign under the next letter of the project's code.
func (s *CampaignService) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*models.Campaign, error) {
	project, err := loadProject(ctx, s.projects, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(project, input.ActorID); err != nil {
		return nil, err
	}

	name, err := validName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validCampaignRange(project, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		Name:        name,
		ProjectID:   project.ID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		OverallInfo: input.OverallInfo,
		Status:      models.CampaignStatusActive,
	}

	if err := issueWithRetry(func() error {
		return s.campaigns.CreateWithCode(ctx, campaign, project.Code)
	}); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	campaign.Project = *project
	s.log.Info().Str("code", campaign.Code).Msg("campaign created")
	return campaign, nil
}

// GetCampaign returns a campaign with its project and plans.
func (s *CampaignService) GetCampaign(ctx context.Context, id uint64) (*models.Campaign, error) {
	campaign, err := s.campaigns.FindByID(ctx, id, "Project", "Plans")
	if err != nil {
		return nil, storeError(err, "campaign %d", id)
	}
	return campaign, nil
}

// ListCampaigns lists a project's campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, projectID uint64) ([]models.Campaign, error) {
	if _, err := loadProject(ctx, s.projects, projectID); err != nil {
		return nil, err
	}
	campaigns, err := s.campaigns.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// ActiveCampaigns lists every active campaign with its project, for the
// downstream screen feed.
func (s *CampaignService) ActiveCampaigns(ctx context.Context) ([]models.Campaign, error) {
	campaigns, err := s.campaigns.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaign applies the supplied changes when the actor owns the project.
func (s *CampaignService) UpdateCampaign(ctx context.Context, actorID, id uint64, input UpdateCampaignInput) (*models.Campaign, error) {
	campaign, err := loadCampaign(ctx, s.campaigns, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(&campaign.Project, actorID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validName(*input.Name)
		if err != nil {
			return nil, err
		}
		campaign.Name = name
	}
	if input.StartDate != nil {
		campaign.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		campaign.EndDate = *input.EndDate
	}
	if err := validCampaignRange(&campaign.Project, campaign.StartDate, campaign.EndDate); err != nil {
		return nil, err
	}
	if input.OverallInfo != nil {
		campaign.OverallInfo = *input.OverallInfo
	}
	if input.Status != nil {
		switch *input.Status {
		case models.CampaignStatusActive, models.CampaignStatusCompleted:
			campaign.Status = *input.Status
		default:
			return nil, apierrors.Field("status", "must be active or completed")
		}
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

func validCampaignRange(project *models.Project, start, end time.Time) error {
	if err := validRange(start, end); err != nil {
		return err
	}
	if !project.Covers(start, end) {
		return apierrors.Field("start_date", "campaign dates must fall within the project dates")
	}
	return nil
}
