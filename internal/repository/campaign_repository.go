package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/projects-crm/internal/codegen"
	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCampaignRepository is a GORM implementation of CampaignRepository
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &GormCampaignRepository{db: db}
}

// CreateWithCode issues the next letter under projectCode and inserts the
// campaign while the project's counter row is locked.
func (r *GormCampaignRepository) CreateWithCode(ctx context.Context, campaign *models.Campaign, projectCode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		namespace := codegen.CampaignNamespace(campaign.ProjectID)
		code, err := issue(tx, namespace, seedCampaignNamespace(campaign.ProjectID), func(counter models.CodeCounter) (string, error) {
			return codegen.NextCampaignCode(projectCode, counter.LastCode)
		})
		if err != nil {
			return err
		}

		campaign.Code = code
		return wrapWrite(tx.Omit(clause.Associations).Create(campaign).Error)
	})
}

// seedCampaignNamespace takes the highest stored suffix of the project,
// ranked A..Z then AA.
func seedCampaignNamespace(projectID uint64) arenaSeed {
	return func(tx *gorm.DB) (string, int64, error) {
		var codes []string
		if err := tx.Model(&models.Campaign{}).
			Where("project_id = ?", projectID).
			Pluck("code", &codes).Error; err != nil {
			return "", 0, err
		}

		var last string
		var rank int64
		for _, code := range codes {
			_, suffix, err := codegen.SplitCampaignCode(code)
			if err != nil {
				return "", 0, err
			}
			if r := codegen.CampaignSuffixRank(suffix); r > rank {
				last, rank = code, r
			}
		}
		return last, rank, nil
	}
}

// FindByID finds a campaign by ID with optional preloading
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Campaign, error) {
	var campaign models.Campaign
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListByProject lists a project's campaigns in issue order
func (r *GormCampaignRepository) ListByProject(ctx context.Context, projectID uint64) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ListActive lists active campaigns with their project loaded
func (r *GormCampaignRepository) ListActive(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Where("status = ?", models.CampaignStatusActive).
		Order("id ASC").
		Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// CountByOwner counts campaigns under the owner's projects
func (r *GormCampaignRepository) CountByOwner(ctx context.Context, ownerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Joins("JOIN projects ON projects.id = campaigns.project_id").
		Where("projects.owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

// Update updates a campaign
func (r *GormCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	return wrapWrite(r.db.WithContext(ctx).Omit(clause.Associations).Save(campaign).Error)
}

// Delete removes a campaign and its plans
func (r *GormCampaignRepository) Delete(ctx context.Context, id uint64) (DeleteResult, error) {
	var result DeleteResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plans := tx.Where("campaign_id = ?", id).Delete(&models.Plan{})
		if plans.Error != nil {
			return plans.Error
		}
		result.Plans = plans.RowsAffected

		campaign := tx.Delete(&models.Campaign{}, id)
		if campaign.Error != nil {
			return campaign.Error
		}
		if campaign.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		result.Campaigns = campaign.RowsAffected

		return dropCounters(tx, codegen.PlanNamespace(id))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeleteResult{}, err
		}
		return DeleteResult{}, fmt.Errorf("delete campaign %d: %w", id, err)
	}

	return result, nil
}
