package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/projects-crm/internal/codegen"
	"github.com/yukikurage/projects-crm/internal/database"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithCode issues the next PLN-YY-NNN code and inserts the project
// while the year's counter row is locked.
func (r *GormProjectRepository) CreateWithCode(ctx context.Context, project *models.Project, year int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		namespace := codegen.ProjectNamespace(year)
		code, err := issue(tx, namespace, seedProjectNamespace(year), func(counter models.CodeCounter) (string, error) {
			return codegen.NextProjectCode(year, counter.LastCode)
		})
		if err != nil {
			return err
		}

		project.Code = code
		return wrapWrite(tx.Omit(clause.Associations).Create(project).Error)
	})
}

// seedProjectNamespace finds the highest code already stored for the year.
// Sequences are zero-padded, so the lexical maximum is the numeric one.
func seedProjectNamespace(year int) arenaSeed {
	return func(tx *gorm.DB) (string, int64, error) {
		var codes []string
		prefix := fmt.Sprintf("%s-%02d-", codegen.ProjectPrefix, year%100)
		if err := tx.Model(&models.Project{}).
			Where("code LIKE ?", prefix+"%").
			Order("code DESC").
			Limit(1).
			Pluck("code", &codes).Error; err != nil {
			return "", 0, err
		}
		if len(codes) == 0 {
			return "", 0, nil
		}
		parsed, err := codegen.ParseProjectCode(codes[0])
		if err != nil {
			return "", 0, err
		}
		return codes[0], int64(parsed.Sequence), nil
	}
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByOwner lists an owner's projects, newest first
func (r *GormProjectRepository) ListByOwner(ctx context.Context, ownerID uint64, params utils.PaginationParams) ([]models.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	listQuery := query.Order("created_at DESC").Order("id DESC").Scopes(database.Paginate(params))
	if err := listQuery.Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// CountByOwner counts an owner's projects
func (r *GormProjectRepository) CountByOwner(ctx context.Context, ownerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// Update updates a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return wrapWrite(r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error)
}

// Delete removes a project together with its campaigns and their plans
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) (DeleteResult, error) {
	var result DeleteResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaignIDs []uint64
		if err := tx.Model(&models.Campaign{}).Where("project_id = ?", id).Pluck("id", &campaignIDs).Error; err != nil {
			return err
		}

		namespaces := []string{codegen.CampaignNamespace(id)}
		if len(campaignIDs) > 0 {
			plans := tx.Where("campaign_id IN ?", campaignIDs).Delete(&models.Plan{})
			if plans.Error != nil {
				return plans.Error
			}
			result.Plans = plans.RowsAffected

			campaigns := tx.Where("project_id = ?", id).Delete(&models.Campaign{})
			if campaigns.Error != nil {
				return campaigns.Error
			}
			result.Campaigns = campaigns.RowsAffected

			for _, cid := range campaignIDs {
				namespaces = append(namespaces, codegen.PlanNamespace(cid))
			}
		}

		project := tx.Delete(&models.Project{}, id)
		if project.Error != nil {
			return project.Error
		}
		if project.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		result.Projects = project.RowsAffected

		return dropCounters(tx, namespaces...)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeleteResult{}, err
		}
		return DeleteResult{}, fmt.Errorf("delete project %d: %w", id, err)
	}

	return result, nil
}
