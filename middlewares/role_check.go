package middlewares

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/session"
	"github.com/yeremiapane/table-order/utils"
)

// RequireCapability lets the request through only when the session's role
// grants capability. It must run after AuthMiddleware.
func RequireCapability(capability session.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.From(c)
		if s == nil {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		if !s.Can(capability) {
			utils.AbortWithError(c, http.StatusForbidden, fmt.Errorf("%s access required", capability))
			return
		}
		c.Next()
	}
}
