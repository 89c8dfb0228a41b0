package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

// RequireAPIToken accepts "Authorization: Bearer <token>" or "X-API-Token: <token>".
// An empty token disables the check.
func RequireAPIToken(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		provided := c.GetHeader("X-API-Token")
		if provided == "" {
			provided = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or missing api token")
			c.Abort()
			return
		}

		c.Next()
	}
}
