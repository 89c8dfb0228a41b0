package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/shared/logger"
	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

// Recovery turns a handler panic into a 500 response. A panic caused by the client
// hanging up is logged and the request aborted without a body.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		fields := []any{
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"payment_id", c.Param("id"),
			"error", recovered,
		}

		if isBrokenConnection(recovered) {
			log.Warnw("connection broken during request", fields...)
			c.Abort()
			return
		}

		log.Errorw("panic recovered", append(fields, "stack", string(debug.Stack()))...)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error occurred")
	})
}

func isBrokenConnection(recovered interface{}) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
