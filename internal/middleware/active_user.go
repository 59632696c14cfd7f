package middleware

import (
	"context"
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/constants"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
)

// UserLookup loads the session's user.
type UserLookup interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

// RequireActiveUser loads the session user and ends the session of a user
// that was deactivated or no longer exists. Must run after RequireAuth.
func RequireActiveUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		if err != nil || !user.IsActive {
			session := sessions.Default(c)
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Account is not active")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetUser returns the user loaded by RequireActiveUser.
func GetUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
