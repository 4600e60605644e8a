package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/config"
	"github.com/cleberrangel/capacity-planner/internal/database"
	"github.com/cleberrangel/capacity-planner/internal/handler"
	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/metrics"
	"github.com/cleberrangel/capacity-planner/internal/middleware"
	"github.com/cleberrangel/capacity-planner/internal/migration"
	"github.com/cleberrangel/capacity-planner/internal/repository"
	"github.com/cleberrangel/capacity-planner/internal/service"
	"github.com/gin-gonic/gin"
)

const Version = "0.3.0"

func main() {
	migrateDown := flag.Bool("migrate-down", false, "reverte a última migração aplicada e encerra")
	flag.Parse()

	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("timezone", cfg.Capacity.Location.String()).
		Float64("weekly_hours", cfg.Capacity.WeeklyHours).
		Msg("Capacity Planner iniciando")

	db, err := database.Connect(database.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		SSLMode:         cfg.DBSSLMode,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		ConnMaxIdleTime: cfg.DBConnIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Erro ao conectar ao banco")
	}
	defer database.Close(db)

	if *migrateDown {
		if err := migration.NewMigrator(db).Rollback(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Erro ao reverter migração")
		}
		return
	}

	if cfg.AutoMigrate {
		if err := migration.NewMigrator(db).Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Erro ao executar migrations")
		}
	}

	// Inicializa dependências
	appMetrics := metrics.Get()
	source, stopCache := service.NewCachedSource(
		repository.NewCapacityRepository(db, cfg.DBQueryTimeout),
		cfg.RosterCacheTTL,
	)
	defer stopCache()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cached, ok := source.(*service.CachedSource); ok {
		appMetrics.SetRosterCacheStats(cached.Stats)
		go invalidateOnHangup(ctx, cached)
	}

	summaryEngine := service.NewSummaryEngine(source, cfg.Capacity)
	forecastEngine := service.NewForecastEngine(source, cfg.Capacity)
	reportService := service.NewReportService(summaryEngine, forecastEngine)

	capacityHandler := handler.NewCapacityHandler(summaryEngine, forecastEngine, reportService, appMetrics)
	healthHandler := handler.NewHealthHandler(db, appMetrics, Version)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, appMetrics)

	gin.SetMode(cfg.GinMode)
	r := handler.NewRouter(handler.RouterConfig{
		Capacity: capacityHandler,
		Health:   healthHandler,
		Limiter:  limiter,
		TokenAPI: cfg.TokenAPI,
	})

	go sweepLimiter(ctx, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Erro no shutdown")
	}
}

// sweepLimiter descarta periodicamente clientes inativos do rate limiter
func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Sweep(); removed > 0 {
				logger.Global().Debug().Int("clients", removed).Msg("Rate limiter limpo")
			}
		}
	}
}

// invalidateOnHangup descarta o roster em cache a cada SIGHUP
func invalidateOnHangup(ctx context.Context, cached *service.CachedSource) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			cached.InvalidateRoster()
			logger.Global().Info().Msg("Cache de roster invalidado")
		}
	}
}
