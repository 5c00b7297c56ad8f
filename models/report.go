package models

import (
	"time"

	"gorm.io/datatypes"
)

const ReportTypeGeneral = "general"

var ReportTypes = []string{ReportTypeGeneral}

// Report is a write-once aggregate snapshot.
type Report struct {
	Model
	Type        string         `json:"type" gorm:"index;not null"`
	Data        datatypes.JSON `json:"data"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	CreatedBy   *uint          `json:"created_by"`
}

type ReportRequest struct {
	ReportType  string    `json:"reportType" binding:"required"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
}

type CountItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GeneralReport is the payload of a "general" report.
type GeneralReport struct {
	TotalHouses         int            `json:"total_houses"`
	TotalUsers          int64          `json:"total_users"`
	StatusDistribution  map[string]int `json:"status_distribution"`
	PropertyTypes       map[string]int `json:"property_type_distribution"`
	CityDistribution    map[string]int `json:"city_distribution"`
	TopSensitiveObjects []CountItem    `json:"top_sensitive_objects"`
	WithPlan            int            `json:"with_plan"`
	WithAnalysis        int            `json:"with_analysis"`
	RiskLevels          map[string]int `json:"risk_level_distribution"`
	AverageRooms        float64        `json:"average_rooms"`
	AverageSurfaceArea  float64        `json:"average_surface_area"`
}
