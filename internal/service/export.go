package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cleberrangel/capacity-planner/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	forecastSheet = "Forecast"
)

var summaryHeaders = []string{"User ID", "Name", "Role", "Projects", "Tasks", "Logged Hours", "Capacity Hours", "Utilization %", "Alert"}

var forecastHeaders = []string{"Week", "Start", "End", "Health", "User ID", "Name", "Hours", "Utilization %", "Status", "Top Projects"}

// severityColors pinta alertas e status pela gravidade
var severityColors = map[string]string{
	model.AlertNormal:      "C6EFCE",
	model.AlertWarning:     "FFEB9C",
	model.AlertCritical:    "FFC7CE",
	model.StatusLight:      "DDEBF7",
	model.StatusBalanced:   "C6EFCE",
	model.StatusTight:      "FFEB9C",
	model.StatusOverbooked: "FFC7CE",
}

// CapacityExporter gera a planilha de capacidade
type CapacityExporter struct{}

// NewCapacityExporter cria um novo exportador
func NewCapacityExporter() *CapacityExporter {
	return &CapacityExporter{}
}

// Export writes a workbook with one sheet for the summary and one for the forecast
func (x *CapacityExporter) Export(summary *model.SummaryResult, forecast *model.ForecastResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}
	if _, err := f.NewSheet(forecastSheet); err != nil {
		return nil, fmt.Errorf("criar sheet: %w", err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, fmt.Errorf("criar estilos: %w", err)
	}

	if err := writeSummarySheet(f, styles, summary); err != nil {
		return nil, fmt.Errorf("escrever resumo: %w", err)
	}
	if err := writeForecastSheet(f, styles, forecast); err != nil {
		return nil, fmt.Errorf("escrever previsão: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}
	return buf, nil
}

type sheetStyles struct {
	header   int
	severity map[string]int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return sheetStyles{}, err
	}

	styles := sheetStyles{header: header, severity: make(map[string]int, len(severityColors))}
	for level, color := range severityColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return sheetStyles{}, err
		}
		styles.severity[level] = id
	}
	return styles, nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// writeSeverityCell escreve o valor e aplica a cor da gravidade
func writeSeverityCell(f *excelize.File, sheet string, col, row int, level string, styles sheetStyles) error {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := f.SetCellValue(sheet, cell, level); err != nil {
		return err
	}
	if style, ok := styles.severity[level]; ok {
		return f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, styles sheetStyles, summary *model.SummaryResult) error {
	if err := writeHeaderRow(f, summarySheet, summaryHeaders, styles.header); err != nil {
		return err
	}

	row := 2
	for _, m := range summary.Members {
		values := []interface{}{m.UserID, m.Name, m.Role, m.Projects, m.Tasks, m.LoggedHours, m.CapacityHours, m.Utilization}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}
		if err := writeSeverityCell(f, summarySheet, len(summaryHeaders), row, m.Alert, styles); err != nil {
			return err
		}
		row++
	}

	// Linha de totais do time
	totals := []interface{}{
		"", "Team", "", "", "",
		summary.TeamTotals.LoggedHours,
		summary.TeamTotals.CapacityHours,
		summary.TeamTotals.AvgUtilization,
	}
	cell, _ := excelize.CoordinatesToCellName(1, row+1)
	if err := f.SetSheetRow(summarySheet, cell, &totals); err != nil {
		return err
	}

	period := fmt.Sprintf("%s to %s", summary.Period.From.Format("2006-01-02"), summary.Period.To.Format("2006-01-02"))
	cell, _ = excelize.CoordinatesToCellName(1, row+2)
	return f.SetCellValue(summarySheet, cell, "Period: "+period)
}

func writeForecastSheet(f *excelize.File, styles sheetStyles, forecast *model.ForecastResult) error {
	if err := writeHeaderRow(f, forecastSheet, forecastHeaders, styles.header); err != nil {
		return err
	}

	row := 2
	for _, week := range forecast.Weeks {
		if len(week.Allocations) == 0 {
			values := []interface{}{week.Label, week.Start.Format("2006-01-02"), week.End.Format("2006-01-02")}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(forecastSheet, cell, &values); err != nil {
				return err
			}
			if err := writeSeverityCell(f, forecastSheet, 4, row, week.Health, styles); err != nil {
				return err
			}
			row++
			continue
		}

		for _, a := range week.Allocations {
			values := []interface{}{week.Label, week.Start.Format("2006-01-02"), week.End.Format("2006-01-02")}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(forecastSheet, cell, &values); err != nil {
				return err
			}
			if err := writeSeverityCell(f, forecastSheet, 4, row, week.Health, styles); err != nil {
				return err
			}

			values = []interface{}{a.UserID, a.Name, a.Hours, a.Utilization}
			cell, _ = excelize.CoordinatesToCellName(5, row)
			if err := f.SetSheetRow(forecastSheet, cell, &values); err != nil {
				return err
			}
			if err := writeSeverityCell(f, forecastSheet, 9, row, a.Status, styles); err != nil {
				return err
			}

			cell, _ = excelize.CoordinatesToCellName(10, row)
			if err := f.SetCellValue(forecastSheet, cell, formatProjectMix(a.TopProjects)); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func formatProjectMix(mix []model.ProjectHours) string {
	parts := make([]string, len(mix))
	for i, p := range mix {
		parts[i] = fmt.Sprintf("%s (%.1fh)", p.Name, p.Hours)
	}
	return strings.Join(parts, ", ")
}
