package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/dto"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/services"
)

// SyncUser handles POST /api/sync-user, an upsert keyed on the remote id.
func (h *IdentityHandler) SyncUser(c *gin.Context) {
	var payload dto.IdentityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	outcome, user, err := h.identity.SyncByRemoteID(c.Request.Context(), recordFromPayload(payload))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondReconciled(c, outcome, user)
}

// SyncUsers handles POST /api/sync-users, pulling the full remote listing.
func (h *IdentityHandler) SyncUsers(c *gin.Context) {
	result, err := h.identity.SyncAll(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SyncUsersResponse{
		Fetched: result.Fetched,
		Created: result.Created,
		Skipped: result.Skipped,
	})
}

func respondReconciled(c *gin.Context, outcome services.ReconcileOutcome, user *models.User) {
	userDTO := dto.ToUserDTO(*user)
	resp := dto.ReconcileResponse{Outcome: outcome.String(), User: &userDTO}

	if outcome == services.OutcomeCreated {
		resp.Message = "User created"
		c.JSON(http.StatusCreated, resp)
		return
	}
	resp.Message = "User updated"
	c.JSON(http.StatusOK, resp)
}
