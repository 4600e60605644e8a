package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/metrics"
	"github.com/cleberrangel/capacity-planner/internal/model"
	"github.com/cleberrangel/capacity-planner/internal/service"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Summarizer calcula o resumo retrospectivo
type Summarizer interface {
	Summarize(ctx context.Context, q model.SummaryQuery) (*model.SummaryResult, error)
}

// Forecaster calcula a previsão semanal
type Forecaster interface {
	Forecast(ctx context.Context, q model.ForecastQuery) (*model.ForecastResult, error)
}

// ReportGenerator gera a planilha combinada
type ReportGenerator interface {
	GenerateReport(ctx context.Context, sq model.SummaryQuery, fq model.ForecastQuery) (*service.ReportResult, error)
}

// CapacityHandler manipula as requisições de capacidade
type CapacityHandler struct {
	summary  Summarizer
	forecast Forecaster
	reports  ReportGenerator
	metrics  *metrics.Metrics
}

// NewCapacityHandler cria um novo handler de capacidade
func NewCapacityHandler(summary Summarizer, forecast Forecaster, reports ReportGenerator, m *metrics.Metrics) *CapacityHandler {
	return &CapacityHandler{
		summary:  summary,
		forecast: forecast,
		reports:  reports,
		metrics:  m,
	}
}

// Summary retorna a utilização retrospectiva do time
// @Summary      Resumo de capacidade
// @Description  Horas apontadas vs capacidade mensal por engenheiro
// @Tags         capacity
// @Produce      json
// @Security     BearerAuth
// @Param        from   query string false "início do período (ISO-8601)"
// @Param        to     query string false "fim do período (ISO-8601)"
// @Param        userId query int    false "filtra um engenheiro"
// @Success      200 {object} model.SummaryResult
// @Failure      400 {object} model.ErrorResponse
// @Failure      500 {object} model.ErrorResponse
// @Router       /api/v1/capacity/summary [get]
func (h *CapacityHandler) Summary(c *gin.Context) {
	q, err := parseSummaryQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	start := time.Now()
	result, err := h.summary.Summarize(c.Request.Context(), q)
	h.metrics.RecordSummary(err == nil, time.Since(start).Milliseconds())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Forecast retorna a carga prevista por semana
// @Summary      Previsão de capacidade
// @Description  Estimativas das tarefas abertas distribuídas por semana
// @Tags         capacity
// @Produce      json
// @Security     BearerAuth
// @Param        start             query string false "início da janela (ISO-8601)"
// @Param        weeks             query int    false "semanas (1-8)"
// @Param        userId            query int    false "filtra um engenheiro"
// @Param        includeProjectMix query bool   false "inclui topProjects"
// @Success      200 {object} model.ForecastResult
// @Failure      400 {object} model.ErrorResponse
// @Failure      500 {object} model.ErrorResponse
// @Router       /api/v1/capacity/forecast [get]
func (h *CapacityHandler) Forecast(c *gin.Context) {
	q, err := parseForecastQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	start := time.Now()
	result, err := h.forecast.Forecast(c.Request.Context(), q)
	h.metrics.RecordForecast(err == nil, time.Since(start).Milliseconds())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export gera a planilha com resumo e previsão
// @Summary      Exporta capacidade em Excel
// @Tags         capacity
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200 {file} binary
// @Failure      400 {object} model.ErrorResponse
// @Failure      500 {object} model.ErrorResponse
// @Router       /api/v1/capacity/export [get]
func (h *CapacityHandler) Export(c *gin.Context) {
	sq, err := parseSummaryQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	fq, err := parseForecastQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	start := time.Now()
	result, err := h.reports.GenerateReport(c.Request.Context(), sq, fq)
	if err != nil {
		h.metrics.RecordExport(false, time.Since(start).Milliseconds(), 0)
		h.handleError(c, err)
		return
	}
	h.metrics.RecordExport(true, time.Since(start).Milliseconds(), int64(result.Buffer.Len()))

	filename := fmt.Sprintf("capacidade_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("X-Total-Members", strconv.Itoa(result.TotalMembers))
	c.Header("X-Total-Weeks", strconv.Itoa(result.TotalWeeks))

	c.Data(http.StatusOK, xlsxContentType, result.Buffer.Bytes())
}

// parseUserID aceita ausência; valores não numéricos são erro do cliente
func parseUserID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidUserID, raw)
	}
	return &id, nil
}

func parseSummaryQuery(c *gin.Context) (model.SummaryQuery, error) {
	userID, err := parseUserID(c.Query("userId"))
	if err != nil {
		return model.SummaryQuery{}, err
	}
	return model.SummaryQuery{
		From:   c.Query("from"),
		To:     c.Query("to"),
		UserID: userID,
	}, nil
}

func parseForecastQuery(c *gin.Context) (model.ForecastQuery, error) {
	userID, err := parseUserID(c.Query("userId"))
	if err != nil {
		return model.ForecastQuery{}, err
	}

	q := model.ForecastQuery{
		Start:             c.Query("start"),
		UserID:            userID,
		IncludeProjectMix: parseFlag(c.Query("includeProjectMix")),
	}
	// weeks inválido cai no padrão do motor
	if weeks, err := strconv.Atoi(strings.TrimSpace(c.Query("weeks"))); err == nil {
		q.Weeks = &weeks
	}
	return q, nil
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// handleError trata erros e retorna resposta apropriada
func (h *CapacityHandler) handleError(c *gin.Context, err error) {
	log := logger.FromGin(c)

	switch {
	case errors.Is(err, model.ErrInvalidUserID):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "userId inválido",
			Details: "userId deve ser numérico",
		})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg("Timeout ao calcular capacidade")
		c.JSON(http.StatusGatewayTimeout, model.ErrorResponse{
			Success: false,
			Error:   "timeout na requisição",
			Details: "o banco de dados demorou muito para responder",
		})
	case errors.Is(err, model.ErrSourceUnavailable):
		log.Error().Err(err).Msg("Fonte de dados indisponível")
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Error:   "serviço indisponível",
		})
	default:
		log.Error().Err(err).Msg("Erro ao calcular capacidade")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro interno",
		})
	}
}
