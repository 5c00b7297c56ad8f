package services

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

const defaultNearestLimit = 5

type FireStationService interface {
	CreateStation(req *models.FireStationRequest) (*models.FireStationResponse, error)
	GetStation(id uint) (*models.FireStationResponse, error)
	ListStations(city, search string, limit, offset int) ([]models.FireStationResponse, int64, error)
	UpdateStation(id uint, req *models.FireStationRequest) (*models.FireStationResponse, error)
	UpdateDailyStaff(id uint, count int) (*models.FireStationResponse, error)
	DeleteStation(id uint) error
	NearestStations(lat, lng float64, limit int) ([]models.FireStationResponse, error)
}

type fireStationService struct {
	Config      *config.Config
	stationRepo db.FireStationRepository
	log         *logrus.Logger
	now         func() time.Time
}

func NewFireStationService(stationRepo db.FireStationRepository, conf *config.Config, log *logrus.Logger) FireStationService {
	return &fireStationService{
		Config:      conf,
		stationRepo: stationRepo,
		log:         log,
		now:         time.Now,
	}
}

func (f *fireStationService) CreateStation(req *models.FireStationRequest) (*models.FireStationResponse, error) {
	station := &models.FireStation{DailyStaffCount: req.DailyStaffCount}
	applyStationRequest(station, req)
	if err := f.stationRepo.CreateStation(station); err != nil {
		return nil, err
	}
	return f.toResponse(station, nil), nil
}

func (f *fireStationService) GetStation(id uint) (*models.FireStationResponse, error) {
	station, err := f.load(id)
	if err != nil {
		return nil, err
	}
	return f.toResponse(station, nil), nil
}

func (f *fireStationService) ListStations(city, search string, limit, offset int) ([]models.FireStationResponse, int64, error) {
	stations, total, err := f.stationRepo.ListStations(city, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.FireStationResponse, 0, len(stations))
	for i := range stations {
		items = append(items, *f.toResponse(&stations[i], nil))
	}
	return items, total, nil
}

func (f *fireStationService) UpdateStation(id uint, req *models.FireStationRequest) (*models.FireStationResponse, error) {
	station, err := f.load(id)
	if err != nil {
		return nil, err
	}
	applyStationRequest(station, req)
	if err := f.stationRepo.UpdateStation(station); err != nil {
		return nil, err
	}
	if station, err = f.load(id); err != nil {
		return nil, err
	}
	return f.toResponse(station, nil), nil
}

// UpdateDailyStaff records today's on-duty headcount, which also refreshes
// the station's staleness.
func (f *fireStationService) UpdateDailyStaff(id uint, count int) (*models.FireStationResponse, error) {
	station, err := f.load(id)
	if err != nil {
		return nil, err
	}
	if count < 0 || count > station.PersonnelCount {
		return nil, errs.NewWithCode("daily_staff_count must be between 0 and personnel_count", errs.CodeValidation, http.StatusBadRequest)
	}
	station, err = f.stationRepo.UpdateDailyStaff(id, count)
	if err != nil {
		return nil, err
	}
	return f.toResponse(station, nil), nil
}

func (f *fireStationService) DeleteStation(id uint) error {
	if _, err := f.load(id); err != nil {
		return err
	}
	return f.stationRepo.DeleteStation(id)
}

// NearestStations orders every station by great-circle distance from the
// given point and returns the closest limit of them.
func (f *fireStationService) NearestStations(lat, lng float64, limit int) ([]models.FireStationResponse, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, errs.NewWithCode("lat/lng out of range", errs.CodeValidation, http.StatusBadRequest)
	}
	if limit <= 0 {
		limit = defaultNearestLimit
	}

	stations, err := f.stationRepo.ListAllStations()
	if err != nil {
		return nil, err
	}

	origin := orb.Point{lng, lat}
	distances := make([]float64, len(stations))
	order := make([]int, len(stations))
	for i, s := range stations {
		distances[i] = geo.DistanceHaversine(origin, orb.Point{s.Longitude, s.Latitude}) / 1000
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	items := make([]models.FireStationResponse, 0, len(order))
	for _, i := range order {
		km := distances[i]
		items = append(items, *f.toResponse(&stations[i], &km))
	}
	return items, nil
}

func (f *fireStationService) load(id uint) (*models.FireStation, error) {
	station, err := f.stationRepo.GetStationByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("fire station not found", http.StatusNotFound)
		}
		return nil, err
	}
	return station, nil
}

func (f *fireStationService) toResponse(station *models.FireStation, distanceKm *float64) *models.FireStationResponse {
	return &models.FireStationResponse{
		FireStation: *station,
		IsStale:     station.IsStale(f.now(), f.Config.StationStaleAfter),
		DistanceKm:  distanceKm,
	}
}

func applyStationRequest(station *models.FireStation, req *models.FireStationRequest) {
	station.Name = req.Name
	station.City = req.City
	station.Address = req.Address
	station.Phone = req.Phone
	station.Latitude = req.Latitude
	station.Longitude = req.Longitude
	station.PersonnelCount = req.PersonnelCount
	station.VehicleCount = req.VehicleCount
	station.AmbulanceCount = req.AmbulanceCount
}
