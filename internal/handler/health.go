package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/database"
	"github.com/cleberrangel/capacity-planner/internal/metrics"
	"github.com/gin-gonic/gin"
)

// maxHeapMB limite de memória usado no readiness
const maxHeapMB = 512

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	db        *sql.DB
	metrics   *metrics.Metrics
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, m *metrics.Metrics, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		metrics:   m,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck returns readiness status including database connectivity
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	components := map[string]metrics.HealthStatus{
		"database": metrics.CheckDatabaseHealth(ctx, h.db),
		"memory":   metrics.CheckMemoryHealth(maxHeapMB),
		"capacity": h.checkComputations(),
	}

	overallStatus := metrics.DetermineOverallStatus(components)

	statusCode := http.StatusOK
	if overallStatus == metrics.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	})
}

// checkComputations degrada quando mais da metade dos cálculos falha
func (h *HealthHandler) checkComputations() metrics.HealthStatus {
	s := h.metrics.Snapshot().Capacity

	runs := s.Summary.Runs + s.Forecast.Runs + s.Export.Runs
	failures := s.Summary.Errors + s.Forecast.Errors + s.Export.Errors
	if runs > 0 && float64(failures)/float64(runs) > 0.5 {
		return metrics.HealthStatus{
			Status:  metrics.StatusDegraded,
			Message: "high capacity computation failure rate",
		}
	}
	return metrics.HealthStatus{Status: metrics.StatusHealthy}
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// GetPoolMetrics returns the database connection pool statistics
// @Summary Get database pool metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} database.PoolStats
// @Failure 503 {object} map[string]string
// @Router /metrics/db [get]
func (h *HealthHandler) GetPoolMetrics(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": metrics.StatusUnhealthy})
		return
	}
	c.JSON(http.StatusOK, database.GetPoolStats(h.db))
}
