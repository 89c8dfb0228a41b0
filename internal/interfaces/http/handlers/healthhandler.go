package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

// Pinger reports whether a backing service is reachable
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health. Any failing check turns the response into 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	if status != http.StatusOK {
		c.JSON(status, utils.APIResponse{
			Success: false,
			Data:    components,
			Error:   &utils.ErrorInfo{Type: "unavailable", Message: "dependency check failed"},
		})
		return
	}
	utils.SuccessResponse(c, status, "healthy", components)
}
