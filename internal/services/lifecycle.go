package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/codegen"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
	"gorm.io/gorm"
)

// LifecycleService deletes projects, campaigns and plans on behalf of the
// owning user. Every delete is one transaction; user deactivation never
// reaches this path.
type LifecycleService struct {
	projects  repository.ProjectRepository
	campaigns repository.CampaignRepository
	plans     repository.PlanRepository
	log       zerolog.Logger
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	projects repository.ProjectRepository,
	campaigns repository.CampaignRepository,
	plans repository.PlanRepository,
	log zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		projects:  projects,
		campaigns: campaigns,
		plans:     plans,
		log:       log,
	}
}

// DeleteProject removes a project with all of its campaigns and plans.
func (s *LifecycleService) DeleteProject(ctx context.Context, actorID, projectID uint64) (repository.DeleteResult, error) {
	project, err := loadProject(ctx, s.projects, projectID)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	if err := requireOwner(project, actorID); err != nil {
		return repository.DeleteResult{}, err
	}

	result, err := s.projects.Delete(ctx, projectID)
	if err != nil {
		return repository.DeleteResult{}, storeError(err, "project %d", projectID)
	}

	s.log.Info().
		Str("code", project.Code).
		Int64("campaigns", result.Campaigns).
		Int64("plans", result.Plans).
		Msg("project deleted")
	return result, nil
}

// DeleteCampaign removes a campaign and its plans.
func (s *LifecycleService) DeleteCampaign(ctx context.Context, actorID, campaignID uint64) (repository.DeleteResult, error) {
	campaign, err := loadCampaign(ctx, s.campaigns, campaignID)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	if err := requireOwner(&campaign.Project, actorID); err != nil {
		return repository.DeleteResult{}, err
	}

	result, err := s.campaigns.Delete(ctx, campaignID)
	if err != nil {
		return repository.DeleteResult{}, storeError(err, "campaign %d", campaignID)
	}

	s.log.Info().Str("code", campaign.Code).Int64("plans", result.Plans).Msg("campaign deleted")
	return result, nil
}

// DeletePlan removes a single plan.
func (s *LifecycleService) DeletePlan(ctx context.Context, actorID, planID uint64) (repository.DeleteResult, error) {
	plan, err := loadPlan(ctx, s.plans, planID)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	return s.deletePlan(ctx, actorID, plan)
}

// DeletePlanByName removes the oldest plan with the given name in a campaign.
func (s *LifecycleService) DeletePlanByName(ctx context.Context, actorID, campaignID uint64, name string) (repository.DeleteResult, error) {
	plan, err := s.plans.FindByName(ctx, campaignID, name)
	if err != nil {
		return repository.DeleteResult{}, storeError(err, "plan %q in campaign %d", name, campaignID)
	}
	plan, err = loadPlan(ctx, s.plans, plan.ID)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	return s.deletePlan(ctx, actorID, plan)
}

func (s *LifecycleService) deletePlan(ctx context.Context, actorID uint64, plan *models.Plan) (repository.DeleteResult, error) {
	if err := requireOwner(&plan.Campaign.Project, actorID); err != nil {
		return repository.DeleteResult{}, err
	}
	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return repository.DeleteResult{}, storeError(err, "plan %d", plan.ID)
	}
	return repository.DeleteResult{Plans: 1}, nil
}

func loadProject(ctx context.Context, repo repository.ProjectRepository, id uint64, preload ...string) (*models.Project, error) {
	project, err := repo.FindByID(ctx, id, preload...)
	if err != nil {
		return nil, storeError(err, "project %d", id)
	}
	return project, nil
}

func loadCampaign(ctx context.Context, repo repository.CampaignRepository, id uint64) (*models.Campaign, error) {
	campaign, err := repo.FindByID(ctx, id, "Project")
	if err != nil {
		return nil, storeError(err, "campaign %d", id)
	}
	return campaign, nil
}

func loadPlan(ctx context.Context, repo repository.PlanRepository, id uint64) (*models.Plan, error) {
	plan, err := repo.FindByID(ctx, id, "Campaign", "Campaign.Project")
	if err != nil {
		return nil, storeError(err, "plan %d", id)
	}
	return plan, nil
}

// requireOwner allows mutations of a project, or anything beneath it, only by
// the project's owner.
func requireOwner(project *models.Project, actorID uint64) error {
	if project == nil || project.OwnerID != actorID {
		return fmt.Errorf("%w: only the project owner can change it", apierrors.ErrAuthorization)
	}
	return nil
}

// storeError turns a missing row into ErrNotFound and wraps anything else.
func storeError(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apierrors.ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// issueWithRetry runs a code-issuing insert and retries it once when it lost
// a unique-index race. A second loss, or an exhausted namespace, is a conflict.
func issueWithRetry(create func() error) error {
	err := create()
	if errors.Is(err, repository.ErrDuplicate) {
		err = create()
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: code already taken, try again", apierrors.ErrConflict)
	case errors.Is(err, codegen.ErrNamespaceExhausted):
		return fmt.Errorf("%w: %v", apierrors.ErrConflict, err)
	}
	return err
}
