package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"cars/internal/handler"
	"cars/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	HealthHandler *handler.HealthHandler
	Logger        *zap.Logger
	NewRelicApp   *newrelic.Application
}

// NewRouter creates the operational router. It exposes health probes only.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	health := router.Group("/health")
	{
		health.GET("", deps.HealthHandler.Live)
		health.GET("/ready", deps.HealthHandler.Ready)
	}

	return router
}
