package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/projects-crm/internal/models"
)

// CreateProjectRequest is the body of POST /api/projects
type CreateProjectRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	ClientBrandID int64  `json:"client_brand_id" binding:"required,gte=1"`
	StartDate     *Date  `json:"start_date" binding:"required"`
	EndDate       *Date  `json:"end_date" binding:"required"`
	Comments      string `json:"comments"`
	OverallInfo   string `json:"overall_info"`
}

// UpdateProjectRequest is the body of PUT /api/projects/:id
type UpdateProjectRequest struct {
	Name          *string               `json:"name" binding:"omitempty,max=200"`
	ClientBrandID *int64                `json:"client_brand_id" binding:"omitempty,gte=1"`
	StartDate     *Date                 `json:"start_date"`
	EndDate       *Date                 `json:"end_date"`
	Comments      *string               `json:"comments"`
	OverallInfo   *string               `json:"overall_info"`
	Status        *models.ProjectStatus `json:"status"`
}

// CreateCampaignRequest is the body of POST /api/projects/:id/campaigns
type CreateCampaignRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	StartDate   *Date  `json:"start_date" binding:"required"`
	EndDate     *Date  `json:"end_date" binding:"required"`
	OverallInfo string `json:"overall_info"`
}

// UpdateCampaignRequest is the body of PUT /api/campaigns/:id
type UpdateCampaignRequest struct {
	Name        *string                `json:"name" binding:"omitempty,max=200"`
	StartDate   *Date                  `json:"start_date"`
	EndDate     *Date                  `json:"end_date"`
	OverallInfo *string                `json:"overall_info"`
	Status      *models.CampaignStatus `json:"status"`
}

// CreatePlanRequest is the body of POST /api/campaigns/:id/plans
type CreatePlanRequest struct {
	Name        string              `json:"name" binding:"max=200"`
	Description string              `json:"description"`
	Budget      decimal.NullDecimal `json:"budget"`
}

// UpdatePlanRequest is the body of PUT /api/plans/:id
type UpdatePlanRequest struct {
	Name        *string              `json:"name" binding:"omitempty,max=200"`
	Description *string              `json:"description"`
	Budget      *decimal.NullDecimal `json:"budget"`
	Status      *models.PlanStatus   `json:"status"`
}

// PlanDTO represents a plan in API responses
type PlanDTO struct {
	ID          uint64              `json:"id"`
	Name        string              `json:"name"`
	CampaignID  uint64              `json:"campaign_id"`
	Description string              `json:"description"`
	Budget      decimal.NullDecimal `json:"budget"`
	Status      models.PlanStatus   `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CampaignDTO represents a campaign in API responses
type CampaignDTO struct {
	ID          uint64                `json:"id"`
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	ProjectID   uint64                `json:"project_id"`
	ProjectCode string                `json:"project_code,omitempty"`
	StartDate   Date                  `json:"start_date"`
	EndDate     Date                  `json:"end_date"`
	OverallInfo string                `json:"overall_info"`
	Status      models.CampaignStatus `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Plans       []PlanDTO             `json:"plans,omitempty"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID              uint64               `json:"id"`
	Code            string               `json:"code"`
	Name            string               `json:"name"`
	ClientBrandID   int64                `json:"client_brand_id"`
	ClientBrandName string               `json:"client_brand_name"`
	StartDate       Date                 `json:"start_date"`
	EndDate         Date                 `json:"end_date"`
	Comments        string               `json:"comments"`
	OverallInfo     string               `json:"overall_info"`
	Status          models.ProjectStatus `json:"status"`
	OwnerID         uint64               `json:"owner_id"`
	Owner           *UserDTO             `json:"owner,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Campaigns       []CampaignDTO        `json:"campaigns,omitempty"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO `json:"projects"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
	TotalPages int          `json:"total_pages"`
}

// DeleteResponse reports how many rows a delete removed
type DeleteResponse struct {
	Projects  int64 `json:"projects"`
	Campaigns int64 `json:"campaigns"`
	Plans     int64 `json:"plans"`
}

// DashboardResponse summarizes the current user's work
type DashboardResponse struct {
	TotalProjects  int64        `json:"total_projects"`
	TotalCampaigns int64        `json:"total_campaigns"`
	RecentProjects []ProjectDTO `json:"recent_projects"`
}

// BrandDTO is a client brand from the agency CRM
type BrandDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CampaignFeedItem is one active campaign in the screen-system feed
type CampaignFeedItem struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	ClientBrandName string `json:"client_brand_name"`
	CampaignName    string `json:"campaign_name"`
	ProjectCode     string `json:"project_code"`
	CampaignCode    string `json:"campaign_code"`
	StartDate       Date   `json:"start_date"`
	EndDate         Date   `json:"end_date"`
	ExternalID      string `json:"external_id"`
	SourceSystem    string `json:"source_system"`
}

// Conversion functions

// ToPlanDTO converts a Plan model to PlanDTO
func ToPlanDTO(plan models.Plan) PlanDTO {
	return PlanDTO{
		ID:          plan.ID,
		Name:        plan.Name,
		CampaignID:  plan.CampaignID,
		Description: plan.Description,
		Budget:      plan.Budget,
		Status:      plan.Status,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
}

// ToCampaignDTO converts a Campaign model to CampaignDTO
func ToCampaignDTO(campaign models.Campaign) CampaignDTO {
	dto := CampaignDTO{
		ID:          campaign.ID,
		Code:        campaign.Code,
		Name:        campaign.Name,
		ProjectID:   campaign.ProjectID,
		StartDate:   NewDate(campaign.StartDate),
		EndDate:     NewDate(campaign.EndDate),
		OverallInfo: campaign.OverallInfo,
		Status:      campaign.Status,
		CreatedAt:   campaign.CreatedAt,
		UpdatedAt:   campaign.UpdatedAt,
	}

	// Include project code if preloaded
	if campaign.Project.ID != 0 {
		dto.ProjectCode = campaign.Project.Code
	}

	if len(campaign.Plans) > 0 {
		dto.Plans = make([]PlanDTO, len(campaign.Plans))
		for i, plan := range campaign.Plans {
			dto.Plans[i] = ToPlanDTO(plan)
		}
	}

	return dto
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:              project.ID,
		Code:            project.Code,
		Name:            project.Name,
		ClientBrandID:   project.ClientBrandID,
		ClientBrandName: project.ClientBrandName,
		StartDate:       NewDate(project.StartDate),
		EndDate:         NewDate(project.EndDate),
		Comments:        project.Comments,
		OverallInfo:     project.OverallInfo,
		Status:          project.Status,
		OwnerID:         project.OwnerID,
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
	}

	// Include owner if preloaded
	if project.Owner.ID != 0 {
		owner := ToUserDTO(project.Owner)
		dto.Owner = &owner
	}

	if len(project.Campaigns) > 0 {
		dto.Campaigns = make([]CampaignDTO, len(project.Campaigns))
		for i, campaign := range project.Campaigns {
			dto.Campaigns[i] = ToCampaignDTO(campaign)
		}
	}

	return dto
}

// ToProjectListResponse converts a slice of projects to ProjectListResponse
func ToProjectListResponse(projects []models.Project, page, pageSize int, totalCount int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return ProjectListResponse{
		Projects:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToCampaignFeedItem formats an active campaign for the screen system
func ToCampaignFeedItem(campaign models.Campaign) CampaignFeedItem {
	return CampaignFeedItem{
		ID:              campaign.ID,
		Name:            fmt.Sprintf("%s - %s", campaign.Project.ClientBrandName, campaign.Name),
		ClientBrandName: campaign.Project.ClientBrandName,
		CampaignName:    campaign.Name,
		ProjectCode:     campaign.Project.Code,
		CampaignCode:    campaign.Code,
		StartDate:       NewDate(campaign.StartDate),
		EndDate:         NewDate(campaign.EndDate),
		ExternalID:      fmt.Sprintf("projects_campaign_%d", campaign.ID),
		SourceSystem:    "projects-crm",
	}
}
