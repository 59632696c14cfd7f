package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projects-crm/internal/credentials"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
)

// RequireCredential rejects requests whose header value the verifier does not
// accept. Webhooks use X-Webhook-Secret, service-to-service calls X-API-Key.
func RequireCredential(header string, verifier credentials.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil || !verifier.Verify(c.GetHeader(header)) {
			apierrors.RespondWithError(c, http.StatusUnauthorized,
				apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Invalid "+header))
			c.Abort()
			return
		}
		c.Next()
	}
}
