package service

import (
	"context"
	"sync"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/model"
)

// fakeSource is an in-memory CapacitySource; safe for the concurrent summary fetches
type fakeSource struct {
	mu sync.Mutex

	engineers []model.Engineer
	logged    []model.LoggedHours
	stats     []model.TaskStats
	tasks     []model.Task

	engineersErr error
	loggedErr    error
	statsErr     error
	tasksErr     error

	calls      []string
	loggedFrom time.Time
	loggedTo   time.Time
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeSource) FetchEngineers(ctx context.Context, userID *int64) ([]model.Engineer, error) {
	f.record("engineers")
	if f.engineersErr != nil {
		return nil, f.engineersErr
	}
	if userID == nil {
		return f.engineers, nil
	}
	var out []model.Engineer
	for _, e := range f.engineers {
		if e.ID == *userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchLoggedHours(ctx context.Context, userIDs []int64, from, to time.Time) ([]model.LoggedHours, error) {
	f.record("logged")
	f.mu.Lock()
	f.loggedFrom, f.loggedTo = from, to
	f.mu.Unlock()
	if f.loggedErr != nil {
		return nil, f.loggedErr
	}
	return f.logged, nil
}

func (f *fakeSource) FetchTaskStats(ctx context.Context, userIDs []int64) ([]model.TaskStats, error) {
	f.record("stats")
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeSource) FetchActiveTasks(ctx context.Context, userIDs []int64) ([]model.Task, error) {
	f.record("tasks")
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	wanted := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []model.Task
	for _, t := range f.tasks {
		if wanted[t.AssignedTo] {
			out = append(out, t)
		}
	}
	return out, nil
}

func engineer(id int64, first, last string) model.Engineer {
	return model.Engineer{ID: id, FirstName: first, LastName: last, Role: model.RoleEngineer}
}

func hoursPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

// fixedClock pins "now" to a Thursday: the next forecast week starts 2026-10-19
func fixedClock() time.Time {
	return time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
}
