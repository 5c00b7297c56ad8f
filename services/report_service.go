package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const topSensitiveObjects = 10

type ReportService interface {
	GenerateReport(ctx context.Context, req *models.ReportRequest, createdBy *uint) (*models.Report, error)
	GetReport(id uint) (*models.Report, error)
	ListReports(limit, offset int) ([]models.Report, int64, error)
	ExportReport(id uint) ([]byte, string, error)
}

type reportService struct {
	Config     *config.Config
	reportRepo db.ReportRepository
	houseRepo  db.HouseRepository
	authRepo   db.AuthRepository
	bus        eventbus.Bus
	log        *logrus.Logger
}

func NewReportService(reportRepo db.ReportRepository, houseRepo db.HouseRepository, authRepo db.AuthRepository, bus eventbus.Bus, conf *config.Config, log *logrus.Logger) ReportService {
	return &reportService{
		Config:     conf,
		reportRepo: reportRepo,
		houseRepo:  houseRepo,
		authRepo:   authRepo,
		bus:        bus,
		log:        log,
	}
}

// GenerateReport aggregates the houses created within the period into a new
// report row. Only "general" is a known type; anything else is rejected.
func (r *reportService) GenerateReport(ctx context.Context, req *models.ReportRequest, createdBy *uint) (*models.Report, error) {
	reportType := strings.ToLower(strings.TrimSpace(req.ReportType))
	if !models.Contains(models.ReportTypes, reportType) {
		return nil, errs.NewWithCode(fmt.Sprintf("unknown report type %q", req.ReportType), errs.CodeInvalidReportType, http.StatusBadRequest)
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, errs.NewWithCode("periodEnd is before periodStart", errs.CodeInvalidPeriod, http.StatusBadRequest)
	}

	req.PeriodStart, req.PeriodEnd = req.PeriodStart.UTC(), req.PeriodEnd.UTC()
	houses, err := r.houseRepo.ListHousesCreatedBetween(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("load houses: %w", err)
	}
	totalUsers, err := r.authRepo.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	payload, err := json.Marshal(BuildGeneralReport(houses, totalUsers))
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Type:        reportType,
		Data:        datatypes.JSON(payload),
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		CreatedBy:   createdBy,
	}
	if err := r.reportRepo.CreateReport(report); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"type":      report.Type,
		"houses":    len(houses),
	}).Info("report generated")
	eventbus.PublishEvent(ctx, r.bus, r.log, eventbus.Reports, eventbus.ReportCreated, map[string]interface{}{
		"id":   report.ID,
		"type": report.Type,
	})
	return report, nil
}

func (r *reportService) GetReport(id uint) (*models.Report, error) {
	report, err := r.reportRepo.GetReportByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("report not found", http.StatusNotFound)
		}
		return nil, err
	}
	return report, nil
}

func (r *reportService) ListReports(limit, offset int) ([]models.Report, int64, error) {
	return r.reportRepo.ListReports(limit, offset)
}

func (r *reportService) ExportReport(id uint) ([]byte, string, error) {
	report, err := r.GetReport(id)
	if err != nil {
		return nil, "", err
	}
	var general models.GeneralReport
	if err := json.Unmarshal(report.Data, &general); err != nil {
		return nil, "", fmt.Errorf("decode report %d: %w", id, err)
	}
	data, err := writeReportWorkbook(report, &general)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("report-%d-%s-%s.xlsx", report.ID, report.Type, report.PeriodStart.Format("20060102"))
	return data, filename, nil
}

// BuildGeneralReport is the pure aggregation behind a "general" report.
// Averages over an empty set are 0.
func BuildGeneralReport(houses []models.House, totalUsers int64) models.GeneralReport {
	report := models.GeneralReport{
		TotalHouses:         len(houses),
		TotalUsers:          totalUsers,
		StatusDistribution:  map[string]int{},
		PropertyTypes:       map[string]int{},
		CityDistribution:    map[string]int{},
		RiskLevels:          map[string]int{},
		TopSensitiveObjects: []models.CountItem{},
	}

	tags := map[string]int{}
	var rooms int
	var surface float64

	for i := range houses {
		h := &houses[i]
		report.StatusDistribution[h.Status]++
		report.PropertyTypes[orUnknown(h.PropertyType)]++
		report.CityDistribution[orUnknown(h.City)]++
		rooms += h.Rooms
		surface += h.SurfaceArea

		objects, _ := models.DecodeStringList(h.SensitiveObjects)
		for _, tag := range objects {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags[tag]++
			}
		}

		if h.PlanURL != nil && *h.PlanURL != "" {
			report.WithPlan++
		}
		if h.PlanAnalysis != nil {
			if analysis, ok := models.DecodeAnalysis(*h.PlanAnalysis); ok && analysis != nil {
				report.WithAnalysis++
				report.RiskLevels[RiskLevel(analysis)]++
			}
		}
	}

	for tag, count := range tags {
		report.TopSensitiveObjects = append(report.TopSensitiveObjects, models.CountItem{Name: tag, Count: count})
	}
	sort.Slice(report.TopSensitiveObjects, func(i, j int) bool {
		a, b := report.TopSensitiveObjects[i], report.TopSensitiveObjects[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(report.TopSensitiveObjects) > topSensitiveObjects {
		report.TopSensitiveObjects = report.TopSensitiveObjects[:topSensitiveObjects]
	}

	if n := len(houses); n > 0 {
		report.AverageRooms = float64(rooms) / float64(n)
		report.AverageSurfaceArea = surface / float64(n)
	}
	return report
}

// RiskLevel reads summary.risk_level when the summary is an object, and
// otherwise buckets overall_risk_score: up to 3 low, up to 6 medium, above
// that high.
func RiskLevel(analysis map[string]interface{}) string {
	if summary, ok := analysis["summary"].(map[string]interface{}); ok {
		if level, ok := summary["risk_level"].(string); ok && level != "" {
			return strings.ToLower(level)
		}
	}
	if level, ok := analysis["risk_level"].(string); ok && level != "" {
		return strings.ToLower(level)
	}
	if score, ok := analysis["overall_risk_score"].(float64); ok {
		switch {
		case score <= 3:
			return "low"
		case score <= 6:
			return "medium"
		default:
			return "high"
		}
	}
	return "unknown"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
