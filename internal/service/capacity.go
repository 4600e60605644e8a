package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/config"
	"github.com/cleberrangel/capacity-planner/internal/model"
)

// CapacitySource is the read-only data access the capacity engines depend on
type CapacitySource interface {
	FetchEngineers(ctx context.Context, userID *int64) ([]model.Engineer, error)
	FetchLoggedHours(ctx context.Context, userIDs []int64, from, to time.Time) ([]model.LoggedHours, error)
	FetchTaskStats(ctx context.Context, userIDs []int64) ([]model.TaskStats, error)
	FetchActiveTasks(ctx context.Context, userIDs []int64) ([]model.Task, error)
}

// Clock returns the current time; engines take one so tests can pin "today"
type Clock func() time.Time

// DefaultForecastWeeks é usado quando weeks não é informado
const DefaultForecastWeeks = 4

// weekLabelLayout formats both ends of a week label ("Oct 19 – Oct 25")
const weekLabelLayout = "Jan 02"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ClassifyAlert maps a logged/capacity ratio to the summary alert level
func ClassifyAlert(ratio float64, c config.Capacity) string {
	switch {
	case ratio >= c.CriticalThreshold:
		return model.AlertCritical
	case ratio >= c.WarningThreshold:
		return model.AlertWarning
	default:
		return model.AlertNormal
	}
}

// ClassifyStatus maps a weekly hours/capacity ratio to the forecast status level
func ClassifyStatus(ratio float64, c config.Capacity) string {
	switch {
	case ratio >= c.CriticalThreshold:
		return model.StatusOverbooked
	case ratio >= c.WarningThreshold:
		return model.StatusTight
	case ratio >= config.BalancedThreshold:
		return model.StatusBalanced
	default:
		return model.StatusLight
	}
}

// statusRank orders statuses light < balanced < tight < overbooked
func statusRank(status string) int {
	switch status {
	case model.StatusBalanced:
		return 1
	case model.StatusTight:
		return 2
	case model.StatusOverbooked:
		return 3
	default:
		return 0
	}
}

// WeekHealth returns the most severe status among allocations, light when empty
func WeekHealth(allocations []model.Allocation) string {
	health := model.StatusLight
	for _, a := range allocations {
		if statusRank(a.Status) > statusRank(health) {
			health = a.Status
		}
	}
	return health
}

// ParseDate accepts RFC 3339 timestamps or plain dates; dateOnly reports the latter.
// Plain dates are interpreted in loc.
func ParseDate(raw string, loc *time.Location) (t time.Time, dateOnly bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	for _, layout := range dateLayouts {
		parsed, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return parsed, layout == "2006-01-02", true
		}
	}
	return time.Time{}, false, false
}

// MonthBounds returns the first and last instant of the calendar month containing t
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func endOfDay(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ResolvePeriod parses from/to, substituting the current month's bounds for any
// bound that is missing or unparseable. A date-only "to" covers that whole day.
func ResolvePeriod(from, to string, now time.Time, loc *time.Location) model.CapacityPeriod {
	monthStart, monthEnd := MonthBounds(now.In(loc))
	period := model.CapacityPeriod{From: monthStart, To: monthEnd}

	if t, _, ok := ParseDate(from, loc); ok {
		period.From = t
	}
	if t, dateOnly, ok := ParseDate(to, loc); ok {
		if dateOnly {
			t = endOfDay(t)
		}
		period.To = t
	}
	return period
}

// StartOfWeek returns Monday 00:00 of the week containing t, in t's location
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// NextWeekStart is this Monday when now is a Monday morning, otherwise next Monday
func NextWeekStart(now time.Time) time.Time {
	monday := StartOfWeek(now)
	if now.Weekday() == time.Monday && now.Hour() < 12 {
		return monday
	}
	return monday.AddDate(0, 0, 7)
}

// ClampWeeks applies the default and the [1, MaxForecastWeeks] bounds
func ClampWeeks(weeks *int) int {
	if weeks == nil {
		return DefaultForecastWeeks
	}
	switch {
	case *weeks < 1:
		return 1
	case *weeks > config.MaxForecastWeeks:
		return config.MaxForecastWeeks
	default:
		return *weeks
	}
}

// weekBounds returns the [start, end] instants of forecast week index
func weekBounds(forecastStart time.Time, index int) (time.Time, time.Time) {
	start := forecastStart.AddDate(0, 0, 7*index)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

func weekLabel(start, end time.Time) string {
	return fmt.Sprintf("%s – %s", start.Format(weekLabelLayout), end.Format(weekLabelLayout))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func engineerIDs(engineers []model.Engineer) []int64 {
	ids := make([]int64, len(engineers))
	for i, e := range engineers {
		ids[i] = e.ID
	}
	return ids
}
