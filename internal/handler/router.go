package handler

import (
	"github.com/cleberrangel/capacity-planner/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RouterConfig reúne handlers e middlewares do servidor HTTP
type RouterConfig struct {
	Capacity *CapacityHandler
	Health   *HealthHandler
	Limiter  *middleware.RateLimiter
	TokenAPI string
}

// NewRouter monta as rotas públicas e o grupo /api/v1 protegido
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware(cfg.Health.metrics))

	// Health e métricas (públicos)
	r.GET("/health/live", cfg.Health.LivenessCheck)
	r.GET("/health/ready", cfg.Health.ReadinessCheck)
	r.GET("/metrics", cfg.Health.GetMetrics)
	r.GET("/metrics/db", cfg.Health.GetPoolMetrics)

	// Grupo de rotas protegidas
	api := r.Group("/api/v1")
	if cfg.Limiter != nil {
		api.Use(cfg.Limiter.Middleware())
	}
	api.Use(middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI: cfg.TokenAPI,
	}))
	{
		capacity := api.Group("/capacity")
		capacity.GET("/summary", cfg.Capacity.Summary)
		capacity.GET("/forecast", cfg.Capacity.Forecast)
		capacity.GET("/export", cfg.Capacity.Export)
	}

	return r
}
