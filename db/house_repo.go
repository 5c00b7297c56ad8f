package db

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

type HouseRepository interface {
	CreateHouse(house *models.House) error
	GetHouseByID(id uint) (*models.House, error)
	ListHouses(filter models.HouseFilter) ([]models.House, int64, error)
	UpdateHouse(house *models.House) error
	UpdateAnalysis(id uint, analysis string, at time.Time) error
	DeleteHouse(id uint) error
	ListHousesCreatedBetween(start, end time.Time) ([]models.House, error)
	ListHousesCreatedAfter(since time.Time, limit int) ([]models.House, error)
	CountByStatus() (map[string]int64, error)
}

type houseRepo struct {
	DB *gorm.DB
}

func NewHouseRepo(db *GormDB) HouseRepository {
	return &houseRepo{db.DB}
}

func (h *houseRepo) CreateHouse(house *models.House) error {
	return h.DB.Create(house).Error
}

func (h *houseRepo) GetHouseByID(id uint) (*models.House, error) {
	var house models.House
	if err := h.DB.First(&house, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get house")
	}
	return &house, nil
}

func (h *houseRepo) ListHouses(filter models.HouseFilter) ([]models.House, int64, error) {
	query := h.DB.Model(&models.House{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(owner_name) LIKE ? OR LOWER(city) LIKE ? OR LOWER(street) LIKE ? OR LOWER(district) LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count houses")
	}

	var houses []models.House
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&houses).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list houses")
	}
	return houses, total, nil
}

// UpdateHouse never writes the analysis columns, so an edit made from a
// stale read cannot erase an analysis stored in the meantime.
func (h *houseRepo) UpdateHouse(house *models.House) error {
	return h.DB.Model(house).Select("*").Omit("id", "created_at", "plan_analysis", "analysis_updated_at").Updates(house).Error
}

func (h *houseRepo) UpdateAnalysis(id uint, analysis string, at time.Time) error {
	result := h.DB.Model(&models.House{}).Where("id = ?", id).Updates(map[string]interface{}{
		"plan_analysis":       analysis,
		"analysis_updated_at": at,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update analysis")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (h *houseRepo) DeleteHouse(id uint) error {
	result := h.DB.Delete(&models.House{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (h *houseRepo) ListHousesCreatedBetween(start, end time.Time) ([]models.House, error) {
	var houses []models.House
	err := h.DB.Where("created_at >= ? AND created_at <= ?", start, end).
		Order("created_at ASC").
		Find(&houses).Error
	return houses, err
}

func (h *houseRepo) ListHousesCreatedAfter(since time.Time, limit int) ([]models.House, error) {
	var houses []models.House
	err := h.DB.Where("created_at > ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&houses).Error
	return houses, err
}

// CountByStatus groups every house by review status.
func (h *houseRepo) CountByStatus() (map[string]int64, error) {
	rows, err := h.DB.Raw("SELECT status, COUNT(*) AS count FROM houses GROUP BY status").Rows()
	if err != nil {
		return nil, errors.Wrap(err, "count by status")
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
