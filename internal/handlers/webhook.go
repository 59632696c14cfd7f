package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/dto"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/services"
)

// IdentityHandler serves the agency CRM webhooks and sync endpoints.
type IdentityHandler struct {
	identity *services.IdentityService
}

func NewIdentityHandler(identity *services.IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

func recordFromPayload(p dto.IdentityPayload) services.IdentityRecord {
	return services.IdentityRecord{
		Email:     p.Email,
		RemoteID:  p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		IsActive:  p.IsActive,
	}
}

// UserCreated handles POST /api/webhooks/user_created.
func (h *IdentityHandler) UserCreated(c *gin.Context) {
	h.pushUpsert(c)
}

// UserUpdated handles POST /api/webhooks/user_updated. A user the service has
// never seen is created, so both webhooks share one path.
func (h *IdentityHandler) UserUpdated(c *gin.Context) {
	h.pushUpsert(c)
}

func (h *IdentityHandler) pushUpsert(c *gin.Context) {
	var payload dto.IdentityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	outcome, user, err := h.identity.PushUpsert(c.Request.Context(), recordFromPayload(payload))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondReconciled(c, outcome, user)
}

// UserDeleted handles POST /api/webhooks/user_deleted.
func (h *IdentityHandler) UserDeleted(c *gin.Context) {
	var payload dto.IdentityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	if err := h.identity.Deactivate(c.Request.Context(), payload.Email); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{Message: "User deactivated"})
}
