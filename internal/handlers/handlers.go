package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/middleware"
)

// actorID returns the session user or answers 401.
func actorID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// idParam returns the parsed path id or answers 400.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, ok := middleware.GetIDParam(c, name)
	if !ok {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
