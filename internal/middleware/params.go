package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
)

const idParamPrefix = "param_id_"

// RequireIDParam parses the named path parameter as a positive id and stores
// it for GetIDParam.
func RequireIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(name), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid "+name)
			c.Abort()
			return
		}

		c.Set(idParamPrefix+name, id)
		c.Next()
	}
}

// GetIDParam returns an id parsed by RequireIDParam, parsing on demand when
// the middleware did not run.
func GetIDParam(c *gin.Context, name string) (uint64, bool) {
	if v, exists := c.Get(idParamPrefix + name); exists {
		id, ok := v.(uint64)
		return id, ok
	}
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
