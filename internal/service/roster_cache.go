package service

import (
	"context"
	"strconv"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/cache"
	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/model"
)

const rosterKeyPrefix = "roster:"

// CachedSource mantém o roster em cache por um TTL curto.
// Horas e tarefas sempre vão à fonte.
type CachedSource struct {
	CapacitySource
	roster *cache.Cache[[]model.Engineer]
}

// NewCachedSource wraps source; ttl <= 0 returns source unchanged
func NewCachedSource(source CapacitySource, ttl time.Duration) (CapacitySource, func()) {
	if ttl <= 0 {
		return source, func() {}
	}
	c := cache.New[[]model.Engineer](ttl)
	return &CachedSource{CapacitySource: source, roster: c}, c.Stop
}

func rosterKey(userID *int64) string {
	if userID == nil {
		return rosterKeyPrefix + "all"
	}
	return rosterKeyPrefix + strconv.FormatInt(*userID, 10)
}

// FetchEngineers serve o roster do cache quando disponível
func (s *CachedSource) FetchEngineers(ctx context.Context, userID *int64) ([]model.Engineer, error) {
	key := rosterKey(userID)
	if engineers, ok := s.roster.Get(key); ok {
		logger.Get(ctx).Debug().Str("key", key).Msg("Roster servido do cache")
		return append([]model.Engineer(nil), engineers...), nil
	}

	engineers, err := s.CapacitySource.FetchEngineers(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.roster.Set(key, append([]model.Engineer(nil), engineers...))
	return engineers, nil
}

// InvalidateRoster descarta todos os rosters em cache
func (s *CachedSource) InvalidateRoster() {
	s.roster.InvalidatePrefix(rosterKeyPrefix)
}

// Stats expõe os contadores do cache de roster
func (s *CachedSource) Stats() cache.Stats {
	return s.roster.Stats()
}
