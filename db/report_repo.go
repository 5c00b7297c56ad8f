package db

import (
	"time"

	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

// ReportRepository has no update: reports are write-once.
type ReportRepository interface {
	CreateReport(report *models.Report) error
	GetReportByID(id uint) (*models.Report, error)
	ListReports(limit, offset int) ([]models.Report, int64, error)
	ListReportsCreatedAfter(since time.Time, limit int) ([]models.Report, error)
}

type reportRepo struct {
	DB *gorm.DB
}

func NewReportRepo(db *GormDB) ReportRepository {
	return &reportRepo{db.DB}
}

func (r *reportRepo) CreateReport(report *models.Report) error {
	return r.DB.Create(report).Error
}

func (r *reportRepo) GetReportByID(id uint) (*models.Report, error) {
	var report models.Report
	if err := r.DB.First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListReports(limit, offset int) ([]models.Report, int64, error) {
	var total int64
	if err := r.DB.Model(&models.Report{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []models.Report
	err := r.DB.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&reports).Error
	return reports, total, err
}

func (r *reportRepo) ListReportsCreatedAfter(since time.Time, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.DB.Where("created_at > ?", since).Order("created_at DESC").Limit(limit).Find(&reports).Error
	return reports, err
}
