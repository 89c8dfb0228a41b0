package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/interfaces/http/handlers"
	"github.com/orris-inc/coinpayable/internal/interfaces/http/middleware"
)

// PaymentRouteConfig holds dependencies for payment routes.
type PaymentRouteConfig struct {
	PaymentHandler *handlers.PaymentHandler
	APIToken       string
	// RefreshLimit throttles on-demand refreshes, which call the blockchain APIs. Nil disables it.
	RefreshLimit gin.HandlerFunc
}

// SetupPaymentRoutes configures payment routes.
func SetupPaymentRoutes(engine *gin.Engine, cfg *PaymentRouteConfig) {
	refresh := []gin.HandlerFunc{cfg.PaymentHandler.RefreshPayment}
	if cfg.RefreshLimit != nil {
		refresh = append([]gin.HandlerFunc{cfg.RefreshLimit}, refresh...)
	}

	payments := engine.Group("/api/payments")
	payments.Use(middleware.RequireAPIToken(cfg.APIToken))
	{
		payments.POST("", cfg.PaymentHandler.CreatePayment)
		payments.GET("", cfg.PaymentHandler.ListPayments)
		payments.GET("/address/:address", cfg.PaymentHandler.GetPaymentByAddress)
		payments.GET("/tx/:hash", cfg.PaymentHandler.GetPaymentByTransaction)
		payments.GET("/:id", cfg.PaymentHandler.GetPayment)
		payments.POST("/:id/refresh", refresh...)
		payments.POST("/:id/comp", cfg.PaymentHandler.CompPayment)
	}
}
