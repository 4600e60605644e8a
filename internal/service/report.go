package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/model"
)

// ReportService orquestra a geração da planilha de capacidade
type ReportService struct {
	summary  *SummaryEngine
	forecast *ForecastEngine
	exporter *CapacityExporter
}

// NewReportService cria um novo serviço de relatórios
func NewReportService(summary *SummaryEngine, forecast *ForecastEngine) *ReportService {
	return &ReportService{
		summary:  summary,
		forecast: forecast,
		exporter: NewCapacityExporter(),
	}
}

// ReportResult contém o resultado da geração do relatório
type ReportResult struct {
	Buffer       *bytes.Buffer
	TotalMembers int
	TotalWeeks   int
}

// GenerateReport runs both engines with the same user filter and exports one workbook
func (s *ReportService) GenerateReport(ctx context.Context, sq model.SummaryQuery, fq model.ForecastQuery) (*ReportResult, error) {
	log := logger.Get(ctx)

	log.Info().Msg("Fase 1: Calculando resumo de capacidade")
	summary, err := s.summary.Summarize(ctx, sq)
	if err != nil {
		return nil, fmt.Errorf("calcular resumo: %w", err)
	}

	log.Info().Msg("Fase 2: Calculando previsão de carga")
	forecast, err := s.forecast.Forecast(ctx, fq)
	if err != nil {
		return nil, fmt.Errorf("calcular previsão: %w", err)
	}

	buf, err := s.exporter.Export(summary, forecast)
	if err != nil {
		return nil, fmt.Errorf("gerar excel: %w", err)
	}

	log.Info().
		Int("members", len(summary.Members)).
		Int("weeks", len(forecast.Weeks)).
		Int("bytes", buf.Len()).
		Msg("Planilha de capacidade gerada")

	return &ReportResult{
		Buffer:       buf,
		TotalMembers: len(summary.Members),
		TotalWeeks:   len(forecast.Weeks),
	}, nil
}
