package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/constants"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
	"github.com/yukikurage/projects-crm/internal/utils"
)

const maxNameLength = 200

// BrandResolver looks up the display name of a client brand.
type BrandResolver interface {
	ResolveBrandName(ctx context.Context, id int64) (string, error)
}

// Clock returns the current time. Project codes take their year from it.
type Clock func() time.Time

// ProjectService handles project business logic.
type ProjectService struct {
	projects  repository.ProjectRepository
	campaigns repository.CampaignRepository
	brands    BrandResolver
	now       Clock
	log       zerolog.Logger
}

// NewProjectService creates a new ProjectService. A nil clock uses time.Now.
func NewProjectService(
	projects repository.ProjectRepository,
	campaigns repository.CampaignRepository,
	brands BrandResolver,
	now Clock,
	log zerolog.Logger,
) *ProjectService {
	if now == nil {
		now = time.Now
	}
	return &ProjectService{
		projects:  projects,
		campaigns: campaigns,
		brands:    brands,
		now:       now,
		log:       log,
	}
}

// CreateProjectInput represents input for creating a project.
type CreateProjectInput struct {
	OwnerID       uint64
	Name          string
	ClientBrandID int64
	StartDate     time.Time
	EndDate       time.Time
	Comments      string
	OverallInfo   string
}

// UpdateProjectInput represents input for updating a project. Nil fields are
// left unchanged; the owner and code never change.
type UpdateProjectInput struct {
	Name          *string
	ClientBrandID *int64
	StartDate     *time.Time
	EndDate       *time.Time
	Comments      *string
	OverallInfo   *string
	Status        *models.ProjectStatus
}

// Dashboard summarizes an owner's work.
type Dashboard struct {
	TotalProjects  int64
	TotalCampaigns int64
	RecentProjects []models.Project
}

// CreateProject validates the input and inserts the project under the next
// code of the current year.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name, err := validName(input.Name)
	if err != nil {
		return nil, err
	}
	if input.ClientBrandID <= 0 {
		return nil, apierrors.Field("client_brand_id", "is required")
	}
	if err := validRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	brandName, err := s.resolveBrand(ctx, input.ClientBrandID)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:            name,
		ClientBrandID:   input.ClientBrandID,
		ClientBrandName: brandName,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Comments:        input.Comments,
		OverallInfo:     input.OverallInfo,
		Status:          models.ProjectStatusActive,
		OwnerID:         input.OwnerID,
	}

	year := s.now().Year()
	if err := issueWithRetry(func() error {
		return s.projects.CreateWithCode(ctx, project, year)
	}); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info().Str("code", project.Code).Uint64("owner_id", project.OwnerID).Msg("project created")
	return project, nil
}

// GetProject returns a project with its campaigns.
func (s *ProjectService) GetProject(ctx context.Context, id uint64) (*models.Project, error) {
	return loadProject(ctx, s.projects, id, "Campaigns", "Owner")
}

// ListProjects lists the owner's projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, ownerID uint64, params utils.PaginationParams) ([]models.Project, int64, error) {
	projects, total, err := s.projects.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// UpdateProject applies the supplied changes when the actor owns the project.
// The date range may not shrink past any existing campaign.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, id uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := loadProject(ctx, s.projects, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(project, actorID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validName(*input.Name)
		if err != nil {
			return nil, err
		}
		project.Name = name
	}
	if input.ClientBrandID != nil && *input.ClientBrandID != project.ClientBrandID {
		if *input.ClientBrandID <= 0 {
			return nil, apierrors.Field("client_brand_id", "is required")
		}
		brandName, err := s.resolveBrand(ctx, *input.ClientBrandID)
		if err != nil {
			return nil, err
		}
		project.ClientBrandID = *input.ClientBrandID
		project.ClientBrandName = brandName
	}
	if input.StartDate != nil {
		project.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = *input.EndDate
	}
	if err := validRange(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}
	if input.Comments != nil {
		project.Comments = *input.Comments
	}
	if input.OverallInfo != nil {
		project.OverallInfo = *input.OverallInfo
	}
	if input.Status != nil {
		switch *input.Status {
		case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusArchived:
			project.Status = *input.Status
		default:
			return nil, apierrors.Field("status", "must be active, completed or archived")
		}
	}

	if input.StartDate != nil || input.EndDate != nil {
		campaigns, err := s.campaigns.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list campaigns: %w", err)
		}
		for _, c := range campaigns {
			if !project.Covers(c.StartDate, c.EndDate) {
				return nil, apierrors.Field("start_date", fmt.Sprintf("must cover campaign %s", c.Code))
			}
		}
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// Dashboard returns project and campaign totals with the most recent projects.
func (s *ProjectService) Dashboard(ctx context.Context, ownerID uint64) (*Dashboard, error) {
	recent, total, err := s.projects.ListByOwner(ctx, ownerID, utils.PaginationParams{
		Page:  1,
		Limit: constants.DashboardRecentProjects,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	campaigns, err := s.campaigns.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	return &Dashboard{
		TotalProjects:  total,
		TotalCampaigns: campaigns,
		RecentProjects: recent,
	}, nil
}

func (s *ProjectService) resolveBrand(ctx context.Context, id int64) (string, error) {
	if s.brands == nil {
		return "", nil
	}
	return s.brands.ResolveBrandName(ctx, id)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apierrors.Field("name", "is required")
	}
	if len(name) > maxNameLength {
		return "", apierrors.Field("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return name, nil
}

func validRange(start, end time.Time) error {
	if start.IsZero() {
		return apierrors.Field("start_date", "is required")
	}
	if end.IsZero() {
		return apierrors.Field("end_date", "is required")
	}
	if end.Before(start) {
		return apierrors.Field("end_date", "must not be before start_date")
	}
	return nil
}
