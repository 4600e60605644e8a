package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/config"
	"github.com/cleberrangel/capacity-planner/internal/model"
)

func newTestForecastEngine(src *fakeSource) *ForecastEngine {
	return NewForecastEngine(src, config.DefaultCapacity()).WithClock(fixedClock)
}

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 15, 0, 0, 0, time.UTC)
}

func TestForecastDefaultEstimate(t *testing.T) {
	src := &fakeSource{
		engineers: []model.Engineer{engineer(1, "Ana", "Lima")},
		tasks: []model.Task{
			{ID: 10, AssignedTo: 1, ProjectID: 3, ProjectName: "Atlas", DueDate: timePtr(day(time.October, 21)), Status: model.TaskStatusTodo},
		},
	}

	result, err := newTestForecastEngine(src).Forecast(context.Background(), model.ForecastQuery{Weeks: intPtr(1)})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(result.Weeks) != 1 {
		t.Fatalf("got %d weeks, want 1", len(result.Weeks))
	}
	week := result.Weeks[0]
	if week.ID != "week-0" || week.Label != "Oct 19 – Oct 25" {
		t.Errorf("week identity = %q / %q", week.ID, week.Label)
	}
	if len(week.Allocations) != 1 {
		t.Fatalf("got %d allocations, want 1", len(week.Allocations))
	}
	a := week.Allocations[0]
	if a.Hours != 6 || a.Utilization != 15 || a.Status != model.StatusLight {
		t.Errorf("allocation = %+v, want 6h 15%% light", a)
	}
	if week.Health != model.StatusLight {
		t.Errorf("health = %s, want light", week.Health)
	}
}

func TestForecastNonPositiveEstimateUsesDefault(t *testing.T) {
	src := &fakeSource{
		engineers: []model.Engineer{engineer(1, "Ana", "Lima")},
		tasks: []model.Task{
			{ID: 1, AssignedTo: 1, ProjectID: 3, EstimatedHours: hoursPtr(0), DueDate: timePtr(day(time.October, 20))},
			{ID: 2, AssignedTo: 1, ProjectID: 3, EstimatedHours: hoursPtr(-4), DueDate: timePtr(day(time.October, 22))},
			{ID: 3, AssignedTo: 1, ProjectID: 3, EstimatedHours: hoursPtr(8), DueDate: timePtr(day(time.October, 23))},
		},
	}

	result, err := newTestForecastEngine(src).Forecast(context.Background(), model.ForecastQuery{Weeks: intPtr(1)})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	a := result.Weeks[0].Allocations[0]
	if a.Hours != 20 || a.Utilization != 50 || a.Status != model.StatusBalanced {
		t.Errorf("allocation = %+v, want 20h 50%% balanced", a)
	}
}

func TestForecastTasksWithoutDueDateOnlyCountInFirstWeek(t *testing.T) {
	src := &fakeSource{
		engineers: []model.Engineer{engineer(1, "Ana", "Lima")},
		tasks: []model.Task{
			{ID: 1, AssignedTo: 1, ProjectID: 3, EstimatedHours: hoursPtr(12)},
		},
	}

	result, err := newTestForecastEngine(src).Forecast(context.Background(), model.ForecastQuery{})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(result.Weeks) != DefaultForecastWeeks {
		t.Fatalf("got %d weeks, want %d", len(result.Weeks), DefaultForecastWeeks)
	}
	if got := result.Weeks[0].Allocations; len(got) != 1 || got[0].Hours != 12 {
		t.Errorf("week 0 allocations = %+v, want 12h", got)
	}
	for _, week := range result.Weeks[1:] {
		if len(week.Allocations) != 0 {
			t.Errorf("%s should be empty, got %+v", week.ID, week.Allocations)
		}
		if week.Health != model.StatusLight {
			t.Errorf("%s health = %s, want light", week.ID, week.Health)
		}
	}
}

func TestForecastBucketsByDueDate(t *testing.T) {
	src := &fakeSource{
		engineers: []model.Engineer{engineer(1, "Ana", "Lima"), engineer(2, "Bruno", "Costa")},
		tasks: []model.Task{
			// Último instante da semana 0
			{ID: 1, AssignedTo: 1, ProjectID: 3, EstimatedHours: hoursPtr(30), DueDate: timePtr(time.Date(2026, 10, 25, 23, 59, 59, 0, time.UTC))},
			{ID: 2, AssignedTo: 1, ProjectID: 3, EstimatedHours: hoursPtr(10), DueDate: timePtr(time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC))},
			{ID: 3, AssignedTo: 2, ProjectID: 4, EstimatedHours: hoursPtr(46), DueDate: timePtr(day(time.October, 28))},
			// Fora da janela
			{ID: 4, AssignedTo: 2, ProjectID: 4, EstimatedHours: hoursPtr(5), DueDate: timePtr(day(time.October, 1))},
		},
	}

	result, err := newTestForecastEngine(src).Forecast(context.Background(), model.ForecastQuery{Weeks: intPtr(2)})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	week0 := result.Weeks[0]
	if len(week0.Allocations) != 1 || week0.Allocations[0].UserID != 1 {
		t.Fatalf("week 0 allocations = %+v", week0.Allocations)
	}
	if a := week0.Allocations[0]; a.Utilization != 75 || a.Status != model.StatusBalanced {
		t.Errorf("week 0 allocation = %+v, want 75%% balanced", a)
	}
	if week0.Health != model.StatusBalanced {
		t.Errorf("week 0 health = %s", week0.Health)
	}

	week1 := result.Weeks[1]
	if len(week1.Allocations) != 2 {
		t.Fatalf("week 1 allocations = %+v, want both engineers", week1.Allocations)
	}
	if a := week1.Allocations[0]; a.UserID != 1 || a.Hours != 10 || a.Status != model.StatusLight {
		t.Errorf("week 1 ana = %+v", a)
	}
	if a := week1.Allocations[1]; a.UserID != 2 || a.Utilization != 115 || a.Status != model.StatusOverbooked {
		t.Errorf("week 1 bruno = %+v, want 115%% overbooked", a)
	}
	if week1.Health != model.StatusOverbooked {
		t.Errorf("week 1 health = %s, want overbooked", week1.Health)
	}
	if week1.Label != "Oct 26 – Nov 01" {
		t.Errorf("week 1 label = %q", week1.Label)
	}
}

func TestForecastProjectMix(t *testing.T) {
	due := timePtr(day(time.October, 20))
	src := &fakeSource{
		engineers: []model.Engineer{engineer(1, "Ana", "Lima")},
		tasks: []model.Task{
			{ID: 1, AssignedTo: 1, ProjectID: 1, ProjectName: "Atlas", EstimatedHours: hoursPtr(4), DueDate: due},
			{ID: 2, AssignedTo: 1, ProjectID: 1, ProjectName: "Atlas", EstimatedHours: hoursPtr(4), DueDate: due},
			{ID: 3, AssignedTo: 1, ProjectID: 2, ProjectName: "Borealis", EstimatedHours: hoursPtr(3), DueDate: due},
			{ID: 4, AssignedTo: 1, ProjectID: 3, ProjectName: "Cygnus", EstimatedHours: hoursPtr(3), DueDate: due},
			{ID: 5, AssignedTo: 1, ProjectID: 4, ProjectName: "", EstimatedHours: hoursPtr(10), DueDate: due},
			{ID: 6, AssignedTo: 1, ProjectID: 5, ProjectName: "Dorado", EstimatedHours: hoursPtr(1.25), DueDate: due},
		},
	}
	engine := newTestForecastEngine(src)

	t.Run("omitted by default", func(t *testing.T) {
		result, err := engine.Forecast(context.Background(), model.ForecastQuery{Weeks: intPtr(1)})
		if err != nil {
			t.Fatalf("Forecast: %v", err)
		}
		a := result.Weeks[0].Allocations[0]
		if a.TopProjects != nil {
			t.Errorf("topProjects = %+v, want nil", a.TopProjects)
		}
		raw, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), "topProjects") {
			t.Errorf("JSON should omit topProjects: %s", raw)
		}
	})

	t.Run("sorted and capped", func(t *testing.T) {
		result, err := engine.Forecast(context.Background(), model.ForecastQuery{Weeks: intPtr(1), IncludeProjectMix: true})
		if err != nil {
			t.Fatalf("Forecast: %v", err)
		}
		a := result.Weeks[0].Allocations[0]
		if a.Hours != 25.3 {
			t.Errorf("hours = %v, want 25.3", a.Hours)
		}
		want := []model.ProjectHours{
			{Name: "Project #4", Hours: 10},
			{Name: "Atlas", Hours: 8},
			{Name: "Borealis", Hours: 3},
			{Name: "Cygnus", Hours: 3},
		}
		if len(a.TopProjects) != len(want) {
			t.Fatalf("topProjects = %+v, want %+v", a.TopProjects, want)
		}
		for i := range want {
			if a.TopProjects[i] != want[i] {
				t.Errorf("topProjects[%d] = %+v, want %+v", i, a.TopProjects[i], want[i])
			}
		}
	})
}

func TestForecastEmptyRoster(t *testing.T) {
	src := &fakeSource{engineers: []model.Engineer{engineer(1, "Ana", "Lima")}}

	result, err := newTestForecastEngine(src).Forecast(context.Background(), model.ForecastQuery{UserID: int64Ptr(42)})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if result.Weeks == nil || len(result.Weeks) != 0 {
		t.Errorf("weeks = %#v, want empty non-nil slice", result.Weeks)
	}
	if src.called("tasks") {
		t.Error("empty roster must not fetch tasks")
	}
	if result.Window.Weeks != DefaultForecastWeeks {
		t.Errorf("window weeks = %d", result.Window.Weeks)
	}
}

func TestForecastWindow(t *testing.T) {
	engine := newTestForecastEngine(&fakeSource{})

	tests := []struct {
		name      string
		query     model.ForecastQuery
		wantStart time.Time
		wantWeeks int
	}{
		{
			name:      "defaults to next week",
			query:     model.ForecastQuery{},
			wantStart: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			wantWeeks: 4,
		},
		{
			name:      "explicit start snaps to monday",
			query:     model.ForecastQuery{Start: "2026-11-05", Weeks: intPtr(2)},
			wantStart: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
			wantWeeks: 2,
		},
		{
			name:      "invalid start falls back",
			query:     model.ForecastQuery{Start: "next tuesday", Weeks: intPtr(20)},
			wantStart: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			wantWeeks: config.MaxForecastWeeks,
		},
		{
			name:      "weeks below one clamps",
			query:     model.ForecastQuery{Weeks: intPtr(0)},
			wantStart: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			wantWeeks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := engine.Window(tt.query)
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", w.Start, tt.wantStart)
			}
			if w.Weeks != tt.wantWeeks {
				t.Errorf("weeks = %d, want %d", w.Weeks, tt.wantWeeks)
			}
			if w.WeekStartsOn != int(time.Monday) {
				t.Errorf("weekStartsOn = %d", w.WeekStartsOn)
			}
		})
	}
}

func TestForecastPropagatesUpstreamErrors(t *testing.T) {
	boom := errors.New("timeout")

	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"roster", &fakeSource{engineersErr: boom}},
		{"tasks", &fakeSource{engineers: []model.Engineer{engineer(1, "A", "B")}, tasksErr: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestForecastEngine(tt.src).Forecast(context.Background(), model.ForecastQuery{})
			if !errors.Is(err, boom) {
				t.Fatalf("err = %v, want wrapped %v", err, boom)
			}
			if result != nil {
				t.Errorf("result should be nil, got %+v", result)
			}
		})
	}
}
