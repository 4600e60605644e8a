package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/config"
	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/model"
)

// maxTopProjects limita a composição de projetos por alocação
const maxTopProjects = 4

// ForecastEngine projeta a carga semanal a partir das tarefas abertas
type ForecastEngine struct {
	source   CapacitySource
	capacity config.Capacity
	now      Clock
}

// NewForecastEngine cria o motor de previsão
func NewForecastEngine(source CapacitySource, capacity config.Capacity) *ForecastEngine {
	return &ForecastEngine{source: source, capacity: capacity, now: time.Now}
}

// WithClock replaces the engine clock, used to pin "next week" in tests
func (e *ForecastEngine) WithClock(now Clock) *ForecastEngine {
	clone := *e
	clone.now = now
	return &clone
}

// Window resolves the forecast window without touching the data source
func (e *ForecastEngine) Window(q model.ForecastQuery) model.ForecastWindow {
	loc := e.capacity.Location
	start := NextWeekStart(e.now().In(loc))
	if t, _, ok := ParseDate(q.Start, loc); ok {
		start = StartOfWeek(t.In(loc))
	}
	return model.ForecastWindow{
		Start:        start,
		Weeks:        ClampWeeks(q.Weeks),
		WeekStartsOn: int(time.Monday),
	}
}

// Forecast buckets each engineer's open task estimates into weeks.
// Tasks without a due date are attributed to the first week only.
func (e *ForecastEngine) Forecast(ctx context.Context, q model.ForecastQuery) (*model.ForecastResult, error) {
	log := logger.Get(ctx)
	window := e.Window(q)

	engineers, err := e.source.FetchEngineers(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("carregar roster: %w", err)
	}
	if len(engineers) == 0 {
		log.Debug().Msg("Previsão de capacidade sem engenheiros")
		return &model.ForecastResult{Window: window, Weeks: []model.WeekBucket{}}, nil
	}

	tasks, err := e.source.FetchActiveTasks(ctx, engineerIDs(engineers))
	if err != nil {
		return nil, fmt.Errorf("carregar tarefas ativas: %w", err)
	}
	byUser := partitionTasks(tasks)

	weeks := make([]model.WeekBucket, 0, window.Weeks)
	for i := 0; i < window.Weeks; i++ {
		weeks = append(weeks, e.buildWeek(i, window.Start, engineers, byUser, q.IncludeProjectMix))
	}

	log.Debug().
		Int("engineers", len(engineers)).
		Int("tasks", len(tasks)).
		Int("weeks", len(weeks)).
		Msg("Previsão de capacidade calculada")
	return &model.ForecastResult{Window: window, Weeks: weeks}, nil
}

func partitionTasks(tasks []model.Task) map[int64][]model.Task {
	byUser := make(map[int64][]model.Task)
	for _, t := range tasks {
		byUser[t.AssignedTo] = append(byUser[t.AssignedTo], t)
	}
	return byUser
}

func (e *ForecastEngine) buildWeek(index int, forecastStart time.Time, engineers []model.Engineer, byUser map[int64][]model.Task, includeMix bool) model.WeekBucket {
	start, end := weekBounds(forecastStart, index)

	allocations := make([]model.Allocation, 0, len(engineers))
	for _, eng := range engineers {
		if alloc, ok := e.allocate(eng, byUser[eng.ID], index, start, end, includeMix); ok {
			allocations = append(allocations, alloc)
		}
	}

	return model.WeekBucket{
		ID:          fmt.Sprintf("week-%d", index),
		Label:       weekLabel(start, end),
		Start:       start,
		End:         end,
		Health:      WeekHealth(allocations),
		Allocations: allocations,
	}
}

// allocate returns false when the engineer has no hours in the week
func (e *ForecastEngine) allocate(eng model.Engineer, tasks []model.Task, index int, start, end time.Time, includeMix bool) (model.Allocation, bool) {
	var hours float64
	perProject := make(map[string]float64)

	for _, t := range tasks {
		if !fallsInWeek(t, index, start, end) {
			continue
		}
		estimate := e.estimate(t)
		hours += estimate
		perProject[projectLabel(t)] += estimate
	}
	if hours <= 0 {
		return model.Allocation{}, false
	}

	ratio := hours / e.capacity.WeeklyHours
	alloc := model.Allocation{
		UserID:      eng.ID,
		Name:        eng.Name(),
		Hours:       round1(hours),
		Utilization: int(math.Round(ratio * 100)),
		Status:      ClassifyStatus(ratio, e.capacity),
	}
	if includeMix {
		alloc.TopProjects = topProjects(perProject, maxTopProjects)
	}
	return alloc, true
}

func fallsInWeek(t model.Task, index int, start, end time.Time) bool {
	if t.DueDate == nil {
		return index == 0
	}
	return !t.DueDate.Before(start) && !t.DueDate.After(end)
}

// estimate usa a estimativa da tarefa ou o padrão quando ausente ou não positiva
func (e *ForecastEngine) estimate(t model.Task) float64 {
	if t.EstimatedHours != nil && *t.EstimatedHours > 0 {
		return *t.EstimatedHours
	}
	return e.capacity.DefaultTaskHours
}

func projectLabel(t model.Task) string {
	if name := strings.TrimSpace(t.ProjectName); name != "" {
		return name
	}
	return fmt.Sprintf("Project #%d", t.ProjectID)
}

// topProjects sorts by hours descending (name ascending on ties) and keeps limit entries
func topProjects(perProject map[string]float64, limit int) []model.ProjectHours {
	mix := make([]model.ProjectHours, 0, len(perProject))
	for name, hours := range perProject {
		mix = append(mix, model.ProjectHours{Name: name, Hours: hours})
	}
	sort.Slice(mix, func(i, j int) bool {
		if mix[i].Hours != mix[j].Hours {
			return mix[i].Hours > mix[j].Hours
		}
		return mix[i].Name < mix[j].Name
	})
	if len(mix) > limit {
		mix = mix[:limit]
	}
	for i := range mix {
		mix[i].Hours = round1(mix[i].Hours)
	}
	return mix
}
