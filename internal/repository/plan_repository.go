package repository

import (
	"context"
	"strconv"

	"github.com/yukikurage/projects-crm/internal/codegen"
	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlanRepository is a GORM implementation of PlanRepository
type GormPlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &GormPlanRepository{db: db}
}

// Create inserts a plan. Every plan advances the campaign's creation counter;
// an empty name takes the default Plan<N> for that position.
func (r *GormPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := issue(tx, codegen.PlanNamespace(plan.CampaignID), seedPlanNamespace(plan.CampaignID), func(counter models.CodeCounter) (string, error) {
			return strconv.FormatInt(counter.Sequence+1, 10), nil
		})
		if err != nil {
			return err
		}

		if plan.Name == "" {
			n, _ := strconv.ParseInt(seq, 10, 64)
			plan.Name = codegen.DefaultPlanName(n)
		}
		return wrapWrite(tx.Omit(clause.Associations).Create(plan).Error)
	})
}

func seedPlanNamespace(campaignID uint64) arenaSeed {
	return func(tx *gorm.DB) (string, int64, error) {
		var count int64
		if err := tx.Model(&models.Plan{}).Where("campaign_id = ?", campaignID).Count(&count).Error; err != nil {
			return "", 0, err
		}
		if count == 0 {
			return "", 0, nil
		}
		return strconv.FormatInt(count, 10), count, nil
	}
}

// FindByID finds a plan by ID with optional preloading
func (r *GormPlanRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Plan, error) {
	var plan models.Plan
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindByName finds the oldest plan with the given name in a campaign
func (r *GormPlanRepository) FindByName(ctx context.Context, campaignID uint64, name string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND name = ?", campaignID, name).
		Order("id ASC").
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListByCampaign lists a campaign's plans in creation order
func (r *GormPlanRepository) ListByCampaign(ctx context.Context, campaignID uint64) ([]models.Plan, error) {
	var plans []models.Plan
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("id ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// Update updates a plan
func (r *GormPlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	return wrapWrite(r.db.WithContext(ctx).Omit(clause.Associations).Save(plan).Error)
}

// Delete removes a single plan
func (r *GormPlanRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Plan{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
