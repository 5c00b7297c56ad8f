package services

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/techagentng/firesafe/models"
	"github.com/xuri/excelize/v2"
)

// writeReportWorkbook renders a general report as an xlsx workbook: a
// summary sheet followed by one sheet per distribution.
func writeReportWorkbook(report *models.Report, general *models.GeneralReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDE2D3"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]interface{}{
		{"Report", report.ID},
		{"Type", report.Type},
		{"Period start", report.PeriodStart.Format("2006-01-02")},
		{"Period end", report.PeriodEnd.Format("2006-01-02")},
		{"Generated at", report.CreatedAt.Format("2006-01-02 15:04")},
		{"Total houses", general.TotalHouses},
		{"Total users", general.TotalUsers},
		{"With plan", general.WithPlan},
		{"With analysis", general.WithAnalysis},
		{"Average rooms", general.AverageRooms},
		{"Average surface area", general.AverageSurfaceArea},
	}
	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{"Summary", summary},
		{"Status", distributionRows(general.StatusDistribution)},
		{"Property types", distributionRows(general.PropertyTypes)},
		{"Cities", distributionRows(general.CityDistribution)},
		{"Risk levels", distributionRows(general.RiskLevels)},
		{"Sensitive objects", countRows(general.TopSensitiveObjects)},
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		header := []interface{}{"Name", "Value"}
		if i > 0 {
			header = []interface{}{"Name", "Count"}
		}
		if err := writeRow(f, sheet.name, 1, header, headerStyle); err != nil {
			return nil, err
		}
		for r, row := range sheet.rows {
			if err := writeRow(f, sheet.name, r+2, row, 0); err != nil {
				return nil, err
			}
		}
		if err := f.SetColWidth(sheet.name, "A", "A", 28); err != nil {
			return nil, err
		}
	}
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func distributionRows(dist map[string]int) [][]interface{} {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []interface{}{k, dist[k]})
	}
	return rows
}

func countRows(items []models.CountItem) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{item.Name, item.Count})
	}
	return rows
}
