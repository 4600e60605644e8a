package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // CAPACITY_TIMEZONE sem depender do tzdata do host

	"github.com/cleberrangel/capacity-planner/internal/model"
	"github.com/joho/godotenv"
)

// MaxForecastWeeks é o limite fixo de semanas da previsão
const MaxForecastWeeks = 8

// BalancedThreshold separa light de balanced na escala semanal.
// O limite de alerta não pode ficar abaixo dele.
const BalancedThreshold = 0.5

// Capacity contém as constantes do planejamento de capacidade
type Capacity struct {
	WeeklyHours       float64
	WeeksPerMonth     float64
	DefaultTaskHours  float64
	WarningThreshold  float64
	CriticalThreshold float64
	Location          *time.Location
}

// DefaultCapacity returns the capacity constants used when nothing is configured
func DefaultCapacity() Capacity {
	return Capacity{
		WeeklyHours:       40,
		WeeksPerMonth:     4,
		DefaultTaskHours:  6,
		WarningThreshold:  0.9,
		CriticalThreshold: 1.1,
		Location:          time.UTC,
	}
}

// MonthlyHours é a capacidade mensal aplicada igualmente a cada engenheiro
func (c Capacity) MonthlyHours() float64 {
	return c.WeeklyHours * c.WeeksPerMonth
}

// Validate rejects constants that would make ratios meaningless
func (c Capacity) Validate() error {
	if c.WeeklyHours <= 0 || c.WeeksPerMonth <= 0 {
		return fmt.Errorf("%w: horas semanais e semanas por mês devem ser positivas", model.ErrInvalidCapacity)
	}
	if c.DefaultTaskHours < 0 {
		return fmt.Errorf("%w: estimativa padrão não pode ser negativa", model.ErrInvalidCapacity)
	}
	if c.WarningThreshold < BalancedThreshold || c.WarningThreshold > c.CriticalThreshold {
		return fmt.Errorf("%w: limite de alerta (%.2f) deve ficar entre %.2f e o limite crítico (%.2f)",
			model.ErrInvalidCapacity, c.WarningThreshold, BalancedThreshold, c.CriticalThreshold)
	}
	return nil
}

// Config armazena as configurações da aplicação
type Config struct {
	TokenAPI           string
	Port               string
	GinMode            string
	LogLevel           string
	LogJSON            bool
	RateLimitPerMinute int
	AutoMigrate        bool

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBQueryTimeout time.Duration
	DBConnLifetime int
	DBConnIdleTime int

	RosterCacheTTL time.Duration

	Capacity Capacity
}

// Load carrega as configurações do ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := &Config{
		TokenAPI:           os.Getenv("TOKEN_API"),
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogJSON:            getEnvBool("LOG_JSON", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AutoMigrate:        getEnvBool("AUTO_MIGRATE", true),

		DBHost:         getEnv("DB_HOST", "127.0.0.1"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getEnv("DB_NAME", "timetracking"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 0),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 0),
		DBQueryTimeout: time.Duration(getEnvInt("DB_QUERY_TIMEOUT_SECONDS", 15)) * time.Second,
		DBConnLifetime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 0),
		DBConnIdleTime: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 0),

		RosterCacheTTL: time.Duration(getEnvInt("ROSTER_CACHE_TTL_SECONDS", 0)) * time.Second,
	}

	capacity, err := loadCapacity()
	if err != nil {
		return nil, err
	}
	cfg.Capacity = capacity

	// Validações obrigatórias
	if cfg.TokenAPI == "" {
		return nil, errors.New("TOKEN_API não configurado")
	}

	return cfg, nil
}

// loadCapacity lê o bloco CAPACITY_* aplicando os padrões
func loadCapacity() (Capacity, error) {
	defaults := DefaultCapacity()
	c := Capacity{
		WeeklyHours:       getEnvFloat("CAPACITY_WEEKLY_HOURS", defaults.WeeklyHours),
		WeeksPerMonth:     getEnvFloat("CAPACITY_WEEKS_PER_MONTH", defaults.WeeksPerMonth),
		DefaultTaskHours:  getEnvFloat("CAPACITY_DEFAULT_TASK_HOURS", defaults.DefaultTaskHours),
		WarningThreshold:  getEnvFloat("CAPACITY_WARNING_THRESHOLD", defaults.WarningThreshold),
		CriticalThreshold: getEnvFloat("CAPACITY_CRITICAL_THRESHOLD", defaults.CriticalThreshold),
		Location:          defaults.Location,
	}

	if tz := os.Getenv("CAPACITY_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Capacity{}, fmt.Errorf("CAPACITY_TIMEZONE inválido: %w", err)
		}
		c.Location = loc
	}

	if err := c.Validate(); err != nil {
		return Capacity{}, err
	}
	return c, nil
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat returns float from env or default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return defaultValue
	}
}
