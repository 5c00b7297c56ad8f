package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	"github.com/techagentng/firesafe/models"
)

const activityLimit = 50

type DashboardService interface {
	Stats() (*models.DashboardStats, error)
	Activity(since time.Time) (*models.Activity, error)
}

type dashboardService struct {
	Config      *config.Config
	houseRepo   db.HouseRepository
	authRepo    db.AuthRepository
	blogRepo    db.BlogRepository
	reportRepo  db.ReportRepository
	stationRepo db.FireStationRepository
	log         *logrus.Logger
	now         func() time.Time
}

func NewDashboardService(houseRepo db.HouseRepository, authRepo db.AuthRepository, blogRepo db.BlogRepository, reportRepo db.ReportRepository, stationRepo db.FireStationRepository, conf *config.Config, log *logrus.Logger) DashboardService {
	return &dashboardService{
		Config:      conf,
		houseRepo:   houseRepo,
		authRepo:    authRepo,
		blogRepo:    blogRepo,
		reportRepo:  reportRepo,
		stationRepo: stationRepo,
		log:         log,
		now:         time.Now,
	}
}

func (d *dashboardService) Stats() (*models.DashboardStats, error) {
	byStatus, err := d.houseRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	stats := &models.DashboardStats{HousesByStatus: map[string]int64{}}
	for _, status := range models.HouseStatuses {
		stats.HousesByStatus[status] = 0
	}
	for status, count := range byStatus {
		stats.HousesByStatus[status] = count
		stats.TotalHouses += count
	}

	if stats.TotalUsers, err = d.authRepo.CountUsers(); err != nil {
		return nil, err
	}
	if stats.PublishedPosts, err = d.blogRepo.CountPublished(); err != nil {
		return nil, err
	}
	if stats.FireStations, err = d.stationRepo.CountStations(); err != nil {
		return nil, err
	}
	staleBefore := d.now().UTC().Add(-d.Config.StationStaleAfter)
	if stats.StaleStations, err = d.stationRepo.CountStaleStations(staleBefore); err != nil {
		return nil, err
	}
	return stats, nil
}

// Activity returns what was created after since. The caller owns the
// "last checked" marker and sends CheckedAt back on its next poll.
func (d *dashboardService) Activity(since time.Time) (*models.Activity, error) {
	checkedAt := d.now().UTC()
	since = since.UTC()

	houses, err := d.houseRepo.ListHousesCreatedAfter(since, activityLimit)
	if err != nil {
		return nil, err
	}
	reports, err := d.reportRepo.ListReportsCreatedAfter(since, activityLimit)
	if err != nil {
		return nil, err
	}
	newUsers, err := d.authRepo.CountUsersSince(since)
	if err != nil {
		return nil, err
	}

	activity := &models.Activity{
		Since:     since,
		CheckedAt: checkedAt,
		Houses:    make([]models.HouseResponse, 0, len(houses)),
		Reports:   reports,
		NewUsers:  newUsers,
	}
	for i := range houses {
		resp, degraded := houses[i].ToResponse()
		if len(degraded) > 0 {
			d.log.WithFields(logrus.Fields{"house_id": houses[i].ID, "fields": degraded}).Warn("malformed stored JSON returned as empty")
		}
		activity.Houses = append(activity.Houses, resp)
	}
	if activity.Reports == nil {
		activity.Reports = []models.Report{}
	}
	return activity, nil
}
