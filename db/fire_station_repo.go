package db

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

type FireStationRepository interface {
	CreateStation(station *models.FireStation) error
	GetStationByID(id uint) (*models.FireStation, error)
	ListStations(city, search string, limit, offset int) ([]models.FireStation, int64, error)
	ListAllStations() ([]models.FireStation, error)
	UpdateStation(station *models.FireStation) error
	UpdateDailyStaff(id uint, count int) (*models.FireStation, error)
	DeleteStation(id uint) error
	CountStations() (int64, error)
	CountStaleStations(before time.Time) (int64, error)
}

type fireStationRepo struct {
	DB *gorm.DB
}

func NewFireStationRepo(db *GormDB) FireStationRepository {
	return &fireStationRepo{db.DB}
}

func (f *fireStationRepo) CreateStation(station *models.FireStation) error {
	return f.DB.Create(station).Error
}

func (f *fireStationRepo) GetStationByID(id uint) (*models.FireStation, error) {
	var station models.FireStation
	if err := f.DB.First(&station, id).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

func (f *fireStationRepo) ListStations(city, search string, limit, offset int) ([]models.FireStation, int64, error) {
	query := f.DB.Model(&models.FireStation{})
	if city != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count stations")
	}
	var stations []models.FireStation
	err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&stations).Error
	return stations, total, err
}

func (f *fireStationRepo) ListAllStations() ([]models.FireStation, error) {
	var stations []models.FireStation
	err := f.DB.Find(&stations).Error
	return stations, err
}

// UpdateStation leaves daily_staff_count to UpdateDailyStaff.
func (f *fireStationRepo) UpdateStation(station *models.FireStation) error {
	return f.DB.Model(station).Select("*").Omit("id", "created_at", "daily_staff_count").Updates(station).Error
}

// UpdateDailyStaff touches updated_at, which is what staleness is measured from.
func (f *fireStationRepo) UpdateDailyStaff(id uint, count int) (*models.FireStation, error) {
	result := f.DB.Model(&models.FireStation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"daily_staff_count": count,
		"updated_at":        time.Now().UTC(),
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return f.GetStationByID(id)
}

func (f *fireStationRepo) DeleteStation(id uint) error {
	result := f.DB.Delete(&models.FireStation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (f *fireStationRepo) CountStations() (int64, error) {
	var count int64
	err := f.DB.Model(&models.FireStation{}).Count(&count).Error
	return count, err
}

func (f *fireStationRepo) CountStaleStations(before time.Time) (int64, error) {
	var count int64
	err := f.DB.Model(&models.FireStation{}).Where("updated_at < ?", before).Count(&count).Error
	return count, err
}
