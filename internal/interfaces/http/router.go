package http

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/interfaces/http/middleware"
	"github.com/orris-inc/coinpayable/internal/interfaces/http/routes"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.RequestLogger(c.log.Named("http")))
	c.engine.Use(middleware.Recovery(c.log.Named("http")))

	if c.cfg.Server.APIToken == "" {
		c.log.Warnw("server.api_token is empty, the payment API is unauthenticated")
	}

	c.engine.GET("/health", c.healthHandler.Health)

	routeCfg := &routes.PaymentRouteConfig{
		PaymentHandler: c.paymentHandler,
		APIToken:       c.cfg.Server.APIToken,
	}
	if c.refreshLimiter != nil {
		routeCfg.RefreshLimit = middleware.RateLimit(c.refreshLimiter, c.log.Named("ratelimit"))
	}
	routes.SetupPaymentRoutes(c.engine, routeCfg)
}

// GetEngine returns the Gin engine
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}
