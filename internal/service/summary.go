package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/config"
	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/model"
	"golang.org/x/sync/errgroup"
)

// SummaryEngine calcula a utilização retrospectiva por engenheiro
type SummaryEngine struct {
	source   CapacitySource
	capacity config.Capacity
	now      Clock
}

// NewSummaryEngine cria o motor de resumo
func NewSummaryEngine(source CapacitySource, capacity config.Capacity) *SummaryEngine {
	return &SummaryEngine{source: source, capacity: capacity, now: time.Now}
}

// WithClock replaces the engine clock, used to pin the default period in tests
func (e *SummaryEngine) WithClock(now Clock) *SummaryEngine {
	clone := *e
	clone.now = now
	return &clone
}

// Summarize computes logged-vs-capacity utilization for the resolved period.
// An empty roster is a valid result, not an error.
func (e *SummaryEngine) Summarize(ctx context.Context, q model.SummaryQuery) (*model.SummaryResult, error) {
	log := logger.Get(ctx)
	period := ResolvePeriod(q.From, q.To, e.now(), e.capacity.Location)

	engineers, err := e.source.FetchEngineers(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("carregar roster: %w", err)
	}
	if len(engineers) == 0 {
		log.Debug().Msg("Resumo de capacidade sem engenheiros")
		return &model.SummaryResult{Period: period, Members: []model.MemberSummary{}}, nil
	}

	ids := engineerIDs(engineers)

	// Horas e estatísticas são independentes entre si
	var (
		logged []model.LoggedHours
		stats  []model.TaskStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logged, err = e.source.FetchLoggedHours(gctx, ids, period.From, period.To)
		if err != nil {
			return fmt.Errorf("carregar horas apontadas: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = e.source.FetchTaskStats(gctx, ids)
		if err != nil {
			return fmt.Errorf("carregar estatísticas de tarefas: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	members := buildMembers(engineers, indexLoggedHours(logged), indexTaskStats(stats), e.capacity)
	result := &model.SummaryResult{
		Period:     period,
		TeamTotals: teamTotals(members),
		Members:    presentMembers(members),
	}

	log.Debug().
		Int("members", len(result.Members)).
		Float64("avg_utilization", result.TeamTotals.AvgUtilization).
		Msg("Resumo de capacidade calculado")
	return result, nil
}

func indexLoggedHours(rows []model.LoggedHours) map[int64]float64 {
	index := make(map[int64]float64, len(rows))
	for _, r := range rows {
		index[r.UserID] += r.Hours
	}
	return index
}

func indexTaskStats(rows []model.TaskStats) map[int64]model.TaskStats {
	index := make(map[int64]model.TaskStats, len(rows))
	for _, r := range rows {
		index[r.UserID] = r
	}
	return index
}

// buildMembers keeps hours unrounded; rounding happens in presentMembers
func buildMembers(engineers []model.Engineer, logged map[int64]float64, stats map[int64]model.TaskStats, c config.Capacity) []model.MemberSummary {
	capacity := c.MonthlyHours()
	members := make([]model.MemberSummary, 0, len(engineers))
	for _, eng := range engineers {
		hours := logged[eng.ID]
		ratio := hours / capacity
		st := stats[eng.ID]
		members = append(members, model.MemberSummary{
			UserID:        eng.ID,
			Name:          eng.Name(),
			Role:          eng.Role,
			Projects:      st.DistinctProjectCount,
			Tasks:         st.TaskCount,
			LoggedHours:   hours,
			CapacityHours: capacity,
			Utilization:   round1(ratio * 100),
			Alert:         ClassifyAlert(ratio, c),
		})
	}
	return members
}

// teamTotals is capacity weighted: Σlogged / Σcapacity, not a mean of percentages
func teamTotals(members []model.MemberSummary) model.TeamTotals {
	var capacity, logged float64
	for _, m := range members {
		capacity += m.CapacityHours
		logged += m.LoggedHours
	}
	totals := model.TeamTotals{
		CapacityHours: capacity,
		LoggedHours:   round2(logged),
	}
	if capacity > 0 {
		totals.AvgUtilization = round1(logged / capacity * 100)
	}
	return totals
}

func presentMembers(members []model.MemberSummary) []model.MemberSummary {
	out := make([]model.MemberSummary, len(members))
	for i, m := range members {
		m.LoggedHours = round2(m.LoggedHours)
		out[i] = m
	}
	return out
}
