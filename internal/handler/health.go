package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cars/internal/repository"
)

// readyTimeout bounds the store round-trips made by a readiness probe.
const readyTimeout = 2 * time.Second

// Pinger is satisfied by anything that can verify store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	driver string
	store  Pinger
	cars   repository.CarRepository
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(driver string, store Pinger, cars repository.CarRepository) *HealthHandler {
	return &HealthHandler{
		driver: driver,
		store:  store,
		cars:   cars,
	}
}

// ReadyResponse is the HTTP response for a successful readiness probe.
type ReadyResponse struct {
	Status string `json:"status"`
	Driver string `json:"driver"`
	Cars   int64  `json:"cars"`
}

// Live handles GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable: " + err.Error()})
		return
	}

	count, err := h.cars.Count(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status: "ready",
		Driver: h.driver,
		Cars:   count,
	})
}
