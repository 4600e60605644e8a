package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/metrics"
	"github.com/cleberrangel/capacity-planner/internal/model"
	"github.com/cleberrangel/capacity-planner/internal/service"
	"github.com/gin-gonic/gin"
)

type stubEngines struct {
	summaryQuery  model.SummaryQuery
	forecastQuery model.ForecastQuery
	err           error
}

func (s *stubEngines) Summarize(ctx context.Context, q model.SummaryQuery) (*model.SummaryResult, error) {
	s.summaryQuery = q
	if s.err != nil {
		return nil, s.err
	}
	return &model.SummaryResult{
		Period:  model.CapacityPeriod{From: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)},
		Members: []model.MemberSummary{{UserID: 1, Name: "Ana Lima", Utilization: 75, Alert: model.AlertNormal}},
	}, nil
}

func (s *stubEngines) Forecast(ctx context.Context, q model.ForecastQuery) (*model.ForecastResult, error) {
	s.forecastQuery = q
	if s.err != nil {
		return nil, s.err
	}
	return &model.ForecastResult{
		Window: model.ForecastWindow{Weeks: 1, WeekStartsOn: 1},
		Weeks:  []model.WeekBucket{{ID: "week-0", Health: model.StatusLight, Allocations: []model.Allocation{}}},
	}, nil
}

func (s *stubEngines) GenerateReport(ctx context.Context, sq model.SummaryQuery, fq model.ForecastQuery) (*service.ReportResult, error) {
	s.summaryQuery, s.forecastQuery = sq, fq
	if s.err != nil {
		return nil, s.err
	}
	return &service.ReportResult{Buffer: bytes.NewBufferString("xlsx"), TotalMembers: 1, TotalWeeks: 4}, nil
}

func setupCapacityRouter(stub *stubEngines, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCapacityHandler(stub, stub, stub, m)

	r := gin.New()
	api := r.Group("/api/v1/capacity")
	api.GET("/summary", h.Summary)
	api.GET("/forecast", h.Forecast)
	api.GET("/export", h.Export)
	return r
}

func doGet(r http.Handler, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestSummaryHandler(t *testing.T) {
	stub := &stubEngines{}
	m := metrics.New()
	r := setupCapacityRouter(stub, m)

	w := doGet(r, "/api/v1/capacity/summary?from=2026-10-01&to=2026-10-31&userId=7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body model.SummaryResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Members) != 1 || body.Members[0].Utilization != 75 {
		t.Errorf("body = %+v", body)
	}

	q := stub.summaryQuery
	if q.From != "2026-10-01" || q.To != "2026-10-31" || q.UserID == nil || *q.UserID != 7 {
		t.Errorf("query = %+v", q)
	}
	if runs := m.Snapshot().Capacity.Summary.Runs; runs != 1 {
		t.Errorf("summary runs = %d", runs)
	}
}

func TestForecastHandlerQueryParsing(t *testing.T) {
	tests := []struct {
		url       string
		wantWeeks *int
		wantMix   bool
	}{
		{"/api/v1/capacity/forecast", nil, false},
		{"/api/v1/capacity/forecast?weeks=3&includeProjectMix=true", intPtr(3), true},
		{"/api/v1/capacity/forecast?weeks=abc&includeProjectMix=1", nil, true},
		{"/api/v1/capacity/forecast?weeks=20&includeProjectMix=no", intPtr(20), false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			stub := &stubEngines{}
			w := doGet(setupCapacityRouter(stub, metrics.New()), tt.url)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			q := stub.forecastQuery
			if (q.Weeks == nil) != (tt.wantWeeks == nil) || (q.Weeks != nil && *q.Weeks != *tt.wantWeeks) {
				t.Errorf("weeks = %v, want %v", q.Weeks, tt.wantWeeks)
			}
			if q.IncludeProjectMix != tt.wantMix {
				t.Errorf("includeProjectMix = %v, want %v", q.IncludeProjectMix, tt.wantMix)
			}
		})
	}
}

func TestInvalidUserIDIsBadRequest(t *testing.T) {
	for _, path := range []string{"summary", "forecast", "export"} {
		t.Run(path, func(t *testing.T) {
			stub := &stubEngines{}
			w := doGet(setupCapacityRouter(stub, metrics.New()), "/api/v1/capacity/"+path+"?userId=abc")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var body model.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Error == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestUpstreamErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("connection reset"), http.StatusInternalServerError},
		{"timeout", fmt.Errorf("carregar roster: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unavailable", fmt.Errorf("carregar roster: %w", model.ErrSourceUnavailable), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubEngines{err: tt.err}
			m := metrics.New()
			w := doGet(setupCapacityRouter(stub, m), "/api/v1/capacity/summary")
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if bytes.Contains(w.Body.Bytes(), []byte("connection reset")) {
				t.Error("internal error details must not leak")
			}
			if errs := m.Snapshot().Capacity.Summary.Errors; errs != 1 {
				t.Errorf("summary errors = %d", errs)
			}
		})
	}
}

func TestExportHandler(t *testing.T) {
	stub := &stubEngines{}
	m := metrics.New()
	w := doGet(setupCapacityRouter(stub, m), "/api/v1/capacity/export?weeks=2&userId=3")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content-type = %q", ct)
	}
	if w.Header().Get("X-Total-Weeks") != "4" || w.Header().Get("X-Total-Members") != "1" {
		t.Errorf("headers = %v", w.Header())
	}
	if w.Body.String() != "xlsx" {
		t.Errorf("body = %q", w.Body.String())
	}
	if *stub.summaryQuery.UserID != 3 || *stub.forecastQuery.UserID != 3 || *stub.forecastQuery.Weeks != 2 {
		t.Errorf("queries = %+v / %+v", stub.summaryQuery, stub.forecastQuery)
	}
	if s := m.Snapshot().Capacity; s.Export.Runs != 1 || s.ExportBytes != 4 {
		t.Errorf("export metrics = %+v", s)
	}
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(nil, metrics.New(), "test")

	r := gin.New()
	r.GET("/health/live", h.LivenessCheck)
	r.GET("/health/ready", h.ReadinessCheck)
	r.GET("/metrics", h.GetMetrics)
	r.GET("/metrics/db", h.GetPoolMetrics)

	if w := doGet(r, "/health/live"); w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}

	w := doGet(r, "/health/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready without db = %d, want 503", w.Code)
	}
	var check metrics.HealthCheck
	if err := json.Unmarshal(w.Body.Bytes(), &check); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if check.Components["database"].Status != metrics.StatusUnhealthy || check.Version != "test" {
		t.Errorf("check = %+v", check)
	}

	if w := doGet(r, "/metrics"); w.Code != http.StatusOK {
		t.Errorf("metrics = %d", w.Code)
	}
	if w := doGet(r, "/metrics/db"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("pool metrics without db = %d, want 503", w.Code)
	}
}

func intPtr(v int) *int { return &v }
