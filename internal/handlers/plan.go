package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/dto"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/services"
)

type PlanHandler struct {
	plans     *services.PlanService
	lifecycle *services.LifecycleService
}

func NewPlanHandler(plans *services.PlanService, lifecycle *services.LifecycleService) *PlanHandler {
	return &PlanHandler{
		plans:     plans,
		lifecycle: lifecycle,
	}
}

// CreatePlan creates a plan under the campaign in the path. An empty name
// becomes Plan<N>.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	campaignID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	plan, err := h.plans.CreatePlan(c.Request.Context(), services.CreatePlanInput{
		ActorID:     userID,
		CampaignID:  campaignID,
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPlanDTO(*plan))
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	campaignID, ok := idParam(c, "id")
	if !ok {
		return
	}

	plans, err := h.plans.ListPlans(c.Request.Context(), campaignID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.PlanDTO, len(plans))
	for i, plan := range plans {
		items[i] = dto.ToPlanDTO(plan)
	}
	c.JSON(http.StatusOK, gin.H{"plans": items})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.plans.GetPlan(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanDTO(*plan))
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	plan, err := h.plans.UpdatePlan(c.Request.Context(), userID, id, services.UpdatePlanInput{
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      req.Status,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanDTO(*plan))
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.lifecycle.DeletePlan(c.Request.Context(), userID, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse(result))
}

// DeletePlanByName removes the oldest plan with the given name from the
// campaign in the path
func (h *PlanHandler) DeletePlanByName(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	campaignID, ok := idParam(c, "id")
	if !ok {
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		apierrors.BadRequest(c, "Invalid name")
		return
	}

	result, err := h.lifecycle.DeletePlanByName(c.Request.Context(), userID, campaignID, name)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse(result))
}
