package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/metrics"
	"github.com/cleberrangel/capacity-planner/internal/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleClientTTL remove limitadores de clientes inativos
const idleClientTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter mantém um token bucket por IP de cliente
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	every   rate.Limit
	burst   int
	now     func() time.Time
	metrics *metrics.Metrics
}

// NewRateLimiter cria um limitador com perMinute requisições por cliente.
// perMinute <= 0 desativa o limite.
func NewRateLimiter(perMinute int, m *metrics.Metrics) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		every:   rate.Inf,
		now:     time.Now,
		metrics: m,
	}
	if perMinute > 0 {
		rl.every = rate.Every(time.Minute / time.Duration(perMinute))
		rl.burst = perMinute
	}
	return rl
}

// Allow reporta se o cliente ainda tem tokens
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.clients[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep descarta clientes sem requisições há mais de idleClientTTL
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleClientTTL)
	removed := 0
	for client, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
			removed++
		}
	}
	return removed
}

// Middleware rejeita com 429 quando o cliente excede o limite
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		if rl.metrics != nil {
			rl.metrics.IncrementRateLimited()
		}
		logger.FromGin(c).Warn().Str("client_ip", c.ClientIP()).Msg("Rate limit excedido")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
			Success: false,
			Error:   "rate limit excedido",
			Details: "aguarde alguns segundos e tente novamente",
		})
	}
}
