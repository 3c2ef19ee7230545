package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/session"
	"github.com/yeremiapane/table-order/utils"
)

// AuthMiddleware resolves the bearer token into a session. Browsers cannot set
// headers on a websocket handshake, so ?token= is accepted as well.
func AuthMiddleware(issuer *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid authorization header"))
				return
			}
			token = strings.TrimPrefix(header, "Bearer ")
		}

		if token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("authorization token missing"))
			return
		}

		s, err := issuer.Parse(token)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			return
		}

		session.Set(c, s)
		c.Next()
	}
}
