package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/dto"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/services"
	"github.com/yukikurage/projects-crm/internal/utils"
)

type ProjectHandler struct {
	projects  *services.ProjectService
	lifecycle *services.LifecycleService
}

func NewProjectHandler(projects *services.ProjectService, lifecycle *services.LifecycleService) *ProjectHandler {
	return &ProjectHandler{
		projects:  projects,
		lifecycle: lifecycle,
	}
}

// CreateProject creates a project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), services.CreateProjectInput{
		OwnerID:       userID,
		Name:          req.Name,
		ClientBrandID: req.ClientBrandID,
		StartDate:     req.StartDate.Value(),
		EndDate:       req.EndDate.Value(),
		Comments:      req.Comments,
		OverallInfo:   req.OverallInfo,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects returns the current user's projects, newest first
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	projects, total, err := h.projects.ListProjects(c.Request.Context(), userID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params.Page, params.Limit, total))
}

// GetProject returns a project with its campaigns
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject applies the supplied fields; only the owner may update
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), userID, id, services.UpdateProjectInput{
		Name:          req.Name,
		ClientBrandID: req.ClientBrandID,
		StartDate:     req.StartDate.TimePtr(),
		EndDate:       req.EndDate.TimePtr(),
		Comments:      req.Comments,
		OverallInfo:   req.OverallInfo,
		Status:        req.Status,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes the project with its campaigns and plans
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := h.lifecycle.DeleteProject(c.Request.Context(), userID, id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse(result))
}

// Dashboard summarizes the current user's projects
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	dashboard, err := h.projects.Dashboard(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	recent := make([]dto.ProjectDTO, len(dashboard.RecentProjects))
	for i, project := range dashboard.RecentProjects {
		recent[i] = dto.ToProjectDTO(project)
	}

	c.JSON(http.StatusOK, dto.DashboardResponse{
		TotalProjects:  dashboard.TotalProjects,
		TotalCampaigns: dashboard.TotalCampaigns,
		RecentProjects: recent,
	})
}
