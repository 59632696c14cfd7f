package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/dto"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/services"
)

type CampaignHandler struct {
	campaigns *services.CampaignService
	lifecycle *services.LifecycleService
}

func NewCampaignHandler(campaigns *services.CampaignService, lifecycle *services.LifecycleService) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		lifecycle: lifecycle,
	}
}

// CreateCampaign creates a campaign under the project in the path
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	campaign, err := h.campaigns.CreateCampaign(c.Request.Context(), services.CreateCampaignInput{
		ActorID:     userID,
		ProjectID:   projectID,
		Name:        req.Name,
		StartDate:   req.StartDate.Value(),
		EndDate:     req.EndDate.Value(),
		OverallInfo: req.OverallInfo,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCampaignDTO(*campaign))
}

// ListCampaigns lists the campaigns of the project in the path
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	campaigns, err := h.campaigns.ListCampaigns(c.Request.Context(), projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.CampaignDTO, len(campaigns))
	for i, campaign := range campaigns {
		items[i] = dto.ToCampaignDTO(campaign)
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": items})
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCampaignDTO(*campaign))
}

func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	campaign, err := h.campaigns.UpdateCampaign(c.Request.Context(), userID, id, services.UpdateCampaignInput{
		Name:        req.Name,
		StartDate:   req.StartDate.TimePtr(),
		EndDate:     req.EndDate.TimePtr(),
		OverallInfo: req.OverallInfo,
		Status:      req.Status,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCampaignDTO(*campaign))
}

// DeleteCampaign removes the campaign and its plans
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.lifecycle.DeleteCampaign(c.Request.Context(), userID, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse(result))
}

// ActiveCampaignFeed lists active campaigns for the screen system
func (h *CampaignHandler) ActiveCampaignFeed(c *gin.Context) {
	campaigns, err := h.campaigns.ActiveCampaigns(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.CampaignFeedItem, len(campaigns))
	for i, campaign := range campaigns {
		items[i] = dto.ToCampaignFeedItem(campaign)
	}
	c.JSON(http.StatusOK, items)
}
