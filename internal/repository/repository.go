package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/utils"
)

// ErrDuplicate wraps unique constraint violations so services can retry or
// report a conflict without knowing the driver.
var ErrDuplicate = errors.New("repository: duplicate key")

// DeleteResult reports how many rows a cascading delete removed.
type DeleteResult struct {
	Projects  int64
	Campaigns int64
	Plans     int64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// Save writes every column of an existing user
	Save(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by exact email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByAgencyCRMID finds a user by remote identity id
	FindByAgencyCRMID(ctx context.Context, remoteID int64) (*models.User, error)

	// Deactivate clears the active flag; it reports whether a user matched
	Deactivate(ctx context.Context, email string) (bool, error)

	// SetPasswordHash stores the local fallback credential
	SetPasswordHash(ctx context.Context, id uint64, hash string) error

	// Transaction runs fn against a repository bound to one transaction
	Transaction(ctx context.Context, fn func(repo UserRepository) error) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithCode issues the next code of the year's namespace and inserts
	// the project in the same transaction
	CreateWithCode(ctx context.Context, project *models.Project, year int) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error)

	// ListByOwner lists an owner's projects, newest first
	ListByOwner(ctx context.Context, ownerID uint64, params utils.PaginationParams) ([]models.Project, int64, error)

	// CountByOwner counts an owner's projects
	CountByOwner(ctx context.Context, ownerID uint64) (int64, error)

	// Update updates a project
	Update(ctx context.Context, project *models.Project) error

	// Delete removes a project with its campaigns and plans
	Delete(ctx context.Context, id uint64) (DeleteResult, error)
}

// CampaignRepository defines the interface for campaign data access
type CampaignRepository interface {
	// CreateWithCode issues the next letter under the project and inserts the
	// campaign in the same transaction
	CreateWithCode(ctx context.Context, campaign *models.Campaign, projectCode string) error

	// FindByID finds a campaign by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Campaign, error)

	// ListByProject lists a project's campaigns in code order
	ListByProject(ctx context.Context, projectID uint64) ([]models.Campaign, error)

	// ListActive lists active campaigns with their project loaded
	ListActive(ctx context.Context) ([]models.Campaign, error)

	// CountByOwner counts campaigns under an owner's projects
	CountByOwner(ctx context.Context, ownerID uint64) (int64, error)

	// Update updates a campaign
	Update(ctx context.Context, campaign *models.Campaign) error

	// Delete removes a campaign and its plans
	Delete(ctx context.Context, id uint64) (DeleteResult, error)
}

// PlanRepository defines the interface for plan data access
type PlanRepository interface {
	// Create inserts a plan; an empty name becomes Plan<N> by creation order
	Create(ctx context.Context, plan *models.Plan) error

	// FindByID finds a plan by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Plan, error)

	// FindByName finds the oldest plan with the given name in a campaign
	FindByName(ctx context.Context, campaignID uint64, name string) (*models.Plan, error)

	// ListByCampaign lists a campaign's plans in creation order
	ListByCampaign(ctx context.Context, campaignID uint64) ([]models.Plan, error)

	// Update updates a plan
	Update(ctx context.Context, plan *models.Plan) error

	// Delete removes a single plan
	Delete(ctx context.Context, id uint64) error
}
