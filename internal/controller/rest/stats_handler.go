package rest

import (
	"net/http"

	"github.com/Freeeeeet/apartment_booking/internal/service"
	"github.com/gin-gonic/gin"
)

type statsHandler struct {
	svc     *service.StatsService
	metrics MetricsSource
}

// GET /api/statistics/dashboard
func (h *statsHandler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GET /api/monitoring/health
func (h *statsHandler) Health(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

// GET /api/monitoring/stats
func (h *statsHandler) MonitoringStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
