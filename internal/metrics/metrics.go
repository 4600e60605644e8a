package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/cache"
)

// Health states reported by the component checks
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// dbLatencyBudget acima disso o banco é reportado como degradado
const dbLatencyBudget = 100 * time.Millisecond

// EndpointMetrics tracks metrics for a specific endpoint
type EndpointMetrics struct {
	Requests     int64
	Errors       int64
	TotalLatency int64
}

// computation acumula contadores de um cálculo (summary, forecast ou export)
type computation struct {
	Runs         int64
	Errors       int64
	TotalLatency int64
}

func (c *computation) record(success bool, latencyMs int64) {
	atomic.AddInt64(&c.Runs, 1)
	atomic.AddInt64(&c.TotalLatency, latencyMs)
	if !success {
		atomic.AddInt64(&c.Errors, 1)
	}
}

func (c *computation) snapshot() ComputationSnapshot {
	runs := atomic.LoadInt64(&c.Runs)
	s := ComputationSnapshot{
		Runs:   runs,
		Errors: atomic.LoadInt64(&c.Errors),
	}
	if runs > 0 {
		s.AvgLatencyMs = float64(atomic.LoadInt64(&c.TotalLatency)) / float64(runs)
	}
	return s
}

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Request metrics
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	RateLimited        int64

	// Request latency (in milliseconds)
	TotalLatency int64
	RequestCount int64

	summaries computation
	forecasts computation
	exports   computation

	// Bytes de planilhas exportadas
	ExportBytes int64

	// Endpoint-specific metrics
	EndpointMetrics map[string]*EndpointMetrics

	// Start time for uptime calculation
	StartTime time.Time

	// Contadores do cache de roster, quando habilitado
	rosterStats func() cache.Stats
}

var globalMetrics *Metrics
var once sync.Once

// New creates an isolated metrics instance
func New() *Metrics {
	return &Metrics{
		StartTime:       time.Now(),
		EndpointMetrics: make(map[string]*EndpointMetrics),
	}
}

// Init initializes the global metrics instance
func Init() {
	once.Do(func() {
		globalMetrics = New()
	})
}

// Get returns the global metrics instance
func Get() *Metrics {
	Init()
	return globalMetrics
}

// IncrementRequests increments request counters
func (m *Metrics) IncrementRequests(success bool, latencyMs int64) {
	atomic.AddInt64(&m.TotalRequests, 1)
	atomic.AddInt64(&m.TotalLatency, latencyMs)
	atomic.AddInt64(&m.RequestCount, 1)

	if success {
		atomic.AddInt64(&m.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&m.FailedRequests, 1)
	}
}

// IncrementRateLimited counts requests rejected by the rate limiter
func (m *Metrics) IncrementRateLimited() {
	atomic.AddInt64(&m.RateLimited, 1)
}

// RecordSummary registra uma execução do resumo de capacidade
func (m *Metrics) RecordSummary(success bool, latencyMs int64) {
	m.summaries.record(success, latencyMs)
}

// RecordForecast registra uma execução da previsão
func (m *Metrics) RecordForecast(success bool, latencyMs int64) {
	m.forecasts.record(success, latencyMs)
}

// RecordExport registra uma exportação; bytes só conta em sucesso
func (m *Metrics) RecordExport(success bool, latencyMs int64, bytes int64) {
	m.exports.record(success, latencyMs)
	if success {
		atomic.AddInt64(&m.ExportBytes, bytes)
	}
}

// TrackEndpoint tracks metrics for a specific endpoint
func (m *Metrics) TrackEndpoint(path, method string, statusCode int, latencyMs int64) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EndpointMetrics == nil {
		m.EndpointMetrics = make(map[string]*EndpointMetrics)
	}

	em, exists := m.EndpointMetrics[key]
	if !exists {
		em = &EndpointMetrics{}
		m.EndpointMetrics[key] = em
	}

	em.Requests++
	em.TotalLatency += latencyMs
	if statusCode >= 400 {
		em.Errors++
	}
}

// GetEndpointMetrics returns a copy of endpoint metrics
func (m *Metrics) GetEndpointMetrics() map[string]EndpointMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]EndpointMetrics, len(m.EndpointMetrics))
	for k, v := range m.EndpointMetrics {
		result[k] = *v
	}
	return result
}

// GetAverageLatency returns average request latency in milliseconds
func (m *Metrics) GetAverageLatency() float64 {
	count := atomic.LoadInt64(&m.RequestCount)
	if count == 0 {
		return 0
	}
	total := atomic.LoadInt64(&m.TotalLatency)
	return float64(total) / float64(count)
}

// GetUptime returns the application uptime
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.StartTime)
}

// SetRosterCacheStats registra a fonte dos contadores do cache de roster
func (m *Metrics) SetRosterCacheStats(stats func() cache.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosterStats = stats
}

// EndpointMetricsSnapshot represents endpoint metrics in a snapshot
type EndpointMetricsSnapshot struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// ComputationSnapshot resume as execuções de um cálculo
type ComputationSnapshot struct {
	Runs         int64   `json:"runs"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MetricsSnapshot represents a point-in-time snapshot of all metrics
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`

	Requests struct {
		Total        int64   `json:"total"`
		Successful   int64   `json:"successful"`
		Failed       int64   `json:"failed"`
		RateLimited  int64   `json:"rate_limited"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
	} `json:"requests"`

	Capacity struct {
		Summary     ComputationSnapshot `json:"summary"`
		Forecast    ComputationSnapshot `json:"forecast"`
		Export      ComputationSnapshot `json:"export"`
		ExportBytes int64               `json:"export_bytes"`
		RosterCache *cache.Stats        `json:"roster_cache,omitempty"`
	} `json:"capacity"`

	System struct {
		Goroutines   int    `json:"goroutines"`
		HeapAllocMB  uint64 `json:"heap_alloc_mb"`
		HeapInUseMB  uint64 `json:"heap_inuse_mb"`
		StackInUseMB uint64 `json:"stack_inuse_mb"`
		NumGC        uint32 `json:"num_gc"`
	} `json:"system"`

	Endpoints map[string]EndpointMetricsSnapshot `json:"endpoints,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := MetricsSnapshot{}

	snapshot.UptimeSeconds = m.GetUptime().Seconds()
	snapshot.StartTime = m.StartTime.Format(time.RFC3339)

	snapshot.Requests.Total = atomic.LoadInt64(&m.TotalRequests)
	snapshot.Requests.Successful = atomic.LoadInt64(&m.SuccessfulRequests)
	snapshot.Requests.Failed = atomic.LoadInt64(&m.FailedRequests)
	snapshot.Requests.RateLimited = atomic.LoadInt64(&m.RateLimited)
	snapshot.Requests.AvgLatencyMs = m.GetAverageLatency()

	snapshot.Capacity.Summary = m.summaries.snapshot()
	snapshot.Capacity.Forecast = m.forecasts.snapshot()
	snapshot.Capacity.Export = m.exports.snapshot()
	snapshot.Capacity.ExportBytes = atomic.LoadInt64(&m.ExportBytes)

	m.mu.RLock()
	rosterStats := m.rosterStats
	m.mu.RUnlock()
	if rosterStats != nil {
		stats := rosterStats()
		snapshot.Capacity.RosterCache = &stats
	}

	snapshot.System.Goroutines = runtime.NumGoroutine()
	snapshot.System.HeapAllocMB = memStats.HeapAlloc / 1024 / 1024
	snapshot.System.HeapInUseMB = memStats.HeapInuse / 1024 / 1024
	snapshot.System.StackInUseMB = memStats.StackInuse / 1024 / 1024
	snapshot.System.NumGC = memStats.NumGC

	endpointMetrics := m.GetEndpointMetrics()
	if len(endpointMetrics) > 0 {
		snapshot.Endpoints = make(map[string]EndpointMetricsSnapshot, len(endpointMetrics))
		for k, v := range endpointMetrics {
			em := EndpointMetricsSnapshot{
				Requests: v.Requests,
				Errors:   v.Errors,
			}
			if v.Requests > 0 {
				em.ErrorRate = float64(v.Errors) / float64(v.Requests) * 100
				em.AvgLatencyMs = float64(v.TotalLatency) / float64(v.Requests)
			}
			snapshot.Endpoints[k] = em
		}
	}

	return snapshot
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// CheckDatabaseHealth checks database connectivity
func CheckDatabaseHealth(ctx context.Context, db *sql.DB) HealthStatus {
	if db == nil {
		return HealthStatus{
			Status:  StatusUnhealthy,
			Message: "database connection not initialized",
		}
	}

	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return HealthStatus{
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Latency: latency.Milliseconds(),
		}
	}

	if latency > dbLatencyBudget {
		return HealthStatus{
			Status:  StatusDegraded,
			Message: "high latency",
			Latency: latency.Milliseconds(),
		}
	}

	return HealthStatus{
		Status:  StatusHealthy,
		Latency: latency.Milliseconds(),
	}
}

// CheckMemoryHealth checks memory usage
func CheckMemoryHealth(maxHeapMB uint64) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return classifyHeap(memStats.HeapAlloc/1024/1024, maxHeapMB)
}

func classifyHeap(heapMB, maxHeapMB uint64) HealthStatus {
	if heapMB > maxHeapMB {
		return HealthStatus{
			Status:  StatusUnhealthy,
			Message: "heap memory exceeds limit",
		}
	}

	// Acima de 80% do limite
	if heapMB > (maxHeapMB * 80 / 100) {
		return HealthStatus{
			Status:  StatusDegraded,
			Message: "heap memory usage high",
		}
	}

	return HealthStatus{Status: StatusHealthy}
}

// DetermineOverallStatus determines overall health from component statuses
func DetermineOverallStatus(components map[string]HealthStatus) string {
	hasUnhealthy := false
	hasDegraded := false

	for _, status := range components {
		switch status.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
