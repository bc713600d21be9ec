package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/price-aggregator/internal/adapters/config"
	"github.com/kosarica/price-aggregator/internal/aggregator"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Backend string `json:"backend"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

// Health handles GET /health. A failing store degrades the status but the
// search path stays up, so the endpoint still answers 200.
func (a *API) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Store:   "connected",
		Backend: a.store.Name(),
		Version: a.opts.Version,
		Uptime:  time.Since(a.started).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		response.Status = "degraded"
		response.Store = "disconnected"
	}

	c.JSON(http.StatusOK, response)
}

// AdaptersResponse lists circuit breaker state per platform.
type AdaptersResponse struct {
	Adapters []aggregator.BreakerSnapshot `json:"adapters"`
}

// ListAdapters handles GET /internal/adapters.
func (a *API) ListAdapters(c *gin.Context) {
	snaps := a.aggregator.Breakers()
	if snaps == nil {
		snaps = []aggregator.BreakerSnapshot{}
	}
	c.JSON(http.StatusOK, AdaptersResponse{Adapters: snaps})
}

// ResetAdapter handles POST /internal/adapters/:platform/reset.
func (a *API) ResetAdapter(c *gin.Context) {
	id := c.Param("platform")
	if !config.IsValidPlatformID(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown platform", Message: id})
		return
	}
	if !a.aggregator.ResetBreaker(config.PlatformID(id)) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No breaker", Message: "platform has not been called yet"})
		return
	}
	a.logger.Info().Str("platform", id).Msg("Circuit breaker reset by operator")
	c.JSON(http.StatusOK, gin.H{"platform": id, "state": aggregator.BreakerClosed})
}
