package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/models"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func TestBuildGeneralReportEmpty(t *testing.T) {
	report := BuildGeneralReport(nil, 4)
	assert.Zero(t, report.TotalHouses)
	assert.Equal(t, int64(4), report.TotalUsers)
	assert.Zero(t, report.AverageRooms)
	assert.Zero(t, report.AverageSurfaceArea)
	assert.Empty(t, report.TopSensitiveObjects)
	assert.NotNil(t, report.TopSensitiveObjects)
}

func TestBuildGeneralReportAggregates(t *testing.T) {
	houses := []models.House{
		{
			City: "Dakar", PropertyType: "house", Status: models.HouseStatusApproved,
			Rooms: 4, SurfaceArea: 120,
			SensitiveObjects: models.EncodeStringList([]string{"gas", "fuel"}),
			PlanURL:          strPtr("https://cdn.example/a.pdf"),
			PlanAnalysis:     strPtr(`{"overall_risk_score":7}`),
		},
		{
			City: "Dakar", PropertyType: "villa", Status: models.HouseStatusPending,
			Rooms: 2, SurfaceArea: 80,
			SensitiveObjects: models.EncodeStringList([]string{"gas"}),
			PlanAnalysis:     strPtr("{broken"),
		},
		{
			PropertyType: "house", Status: models.HouseStatusPending,
			SensitiveObjects: "not a list",
		},
	}

	report := BuildGeneralReport(houses, 10)
	assert.Equal(t, 3, report.TotalHouses)
	assert.Equal(t, map[string]int{"approved": 1, "pending": 2}, report.StatusDistribution)
	assert.Equal(t, map[string]int{"house": 2, "villa": 1}, report.PropertyTypes)
	assert.Equal(t, map[string]int{"Dakar": 2, "unknown": 1}, report.CityDistribution)
	assert.Equal(t, []models.CountItem{{Name: "gas", Count: 2}, {Name: "fuel", Count: 1}}, report.TopSensitiveObjects)
	assert.Equal(t, 1, report.WithPlan)
	assert.Equal(t, 1, report.WithAnalysis)
	assert.Equal(t, map[string]int{"high": 1}, report.RiskLevels)
	assert.InDelta(t, 2.0, report.AverageRooms, 0.001)
	assert.InDelta(t, 66.666, report.AverageSurfaceArea, 0.001)
}

func TestBuildGeneralReportKeepsTopTen(t *testing.T) {
	var houses []models.House
	for i := 0; i < 12; i++ {
		tags := []string{fmt.Sprintf("object-%02d", i)}
		if i < 3 {
			tags = append(tags, "gas")
		}
		houses = append(houses, models.House{Status: models.HouseStatusPending, SensitiveObjects: models.EncodeStringList(tags)})
	}

	report := BuildGeneralReport(houses, 0)
	require.Len(t, report.TopSensitiveObjects, 10)
	assert.Equal(t, models.CountItem{Name: "gas", Count: 3}, report.TopSensitiveObjects[0])
	assert.Equal(t, "object-00", report.TopSensitiveObjects[1].Name)
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		analysis map[string]interface{}
		want     string
	}{
		{map[string]interface{}{"summary": map[string]interface{}{"risk_level": "HIGH"}}, "high"},
		{map[string]interface{}{"risk_level": "Medium"}, "medium"},
		{map[string]interface{}{"overall_risk_score": float64(3)}, "low"},
		{map[string]interface{}{"overall_risk_score": float64(6)}, "medium"},
		{map[string]interface{}{"overall_risk_score": 6.5}, "high"},
		{map[string]interface{}{"summary": "plain text"}, "unknown"},
		{map[string]interface{}{}, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.analysis), "%v", tt.analysis)
	}
}

func newReportService(t *testing.T) (ReportService, *db.GormDB, *recordingBus) {
	t.Helper()
	gormDB := newTestDB(t)
	bus := &recordingBus{}
	svc := NewReportService(db.NewReportRepo(gormDB), db.NewHouseRepo(gormDB), db.NewAuthRepo(gormDB), bus, testConfig(), testLog)
	return svc, gormDB, bus
}

func TestGenerateReportValidation(t *testing.T) {
	svc, _, _ := newReportService(t)
	now := time.Now()

	_, err := svc.GenerateReport(context.Background(), &models.ReportRequest{ReportType: "monthly", PeriodStart: now, PeriodEnd: now}, nil)
	requireCode(t, err, errs.CodeInvalidReportType, http.StatusBadRequest)

	_, err = svc.GenerateReport(context.Background(), &models.ReportRequest{ReportType: "general", PeriodStart: now, PeriodEnd: now.Add(-time.Hour)}, nil)
	requireCode(t, err, errs.CodeInvalidPeriod, http.StatusBadRequest)
}

func TestGenerateAndExportReport(t *testing.T) {
	svc, gormDB, bus := newReportService(t)
	admin := createTestAdmin(t, gormDB, "admin@example.com")
	createTestHouse(t, gormDB, admin)
	createTestHouse(t, gormDB, admin)

	now := time.Now()
	report, err := svc.GenerateReport(context.Background(), &models.ReportRequest{
		ReportType:  "General",
		PeriodStart: now.Add(-time.Hour),
		PeriodEnd:   now.Add(time.Hour),
	}, &admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportTypeGeneral, report.Type)
	assert.Equal(t, []string{eventbus.ReportCreated}, bus.types(eventbus.Reports))

	var general models.GeneralReport
	require.NoError(t, json.Unmarshal(report.Data, &general))
	assert.Equal(t, 2, general.TotalHouses)
	assert.Equal(t, int64(1), general.TotalUsers)

	data, filename, err := svc.ExportReport(report.ID)
	require.NoError(t, err)
	assert.Contains(t, filename, fmt.Sprintf("report-%d-general-", report.ID))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Status", "Property types", "Cities", "Risk levels", "Sensitive objects"}, f.GetSheetList())
	label, err := f.GetCellValue("Summary", "A7")
	require.NoError(t, err)
	assert.Equal(t, "Total houses", label)
	value, err := f.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "2", value)

	_, _, err = svc.ExportReport(report.ID + 100)
	requireStatus(t, err, http.StatusNotFound)
}
