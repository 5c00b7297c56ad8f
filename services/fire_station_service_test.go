package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
)

func newStationService(t *testing.T) *fireStationService {
	t.Helper()
	svc := NewFireStationService(db.NewFireStationRepo(newTestDB(t)), testConfig(), testLog)
	return svc.(*fireStationService)
}

func TestNearestStationsOrdersByDistance(t *testing.T) {
	svc := newStationService(t)
	for _, req := range []models.FireStationRequest{
		{Name: "Saint-Louis", City: "Saint-Louis", Latitude: 16.0326, Longitude: -16.4818},
		{Name: "Thies", City: "Thies", Latitude: 14.7910, Longitude: -16.9359},
		{Name: "Dakar Plateau", City: "Dakar", Latitude: 14.6700, Longitude: -17.4300},
	} {
		_, err := svc.CreateStation(&req)
		require.NoError(t, err)
	}

	nearest, err := svc.NearestStations(14.6928, -17.4467, 2)
	require.NoError(t, err)
	require.Len(t, nearest, 2)
	assert.Equal(t, "Dakar Plateau", nearest[0].Name)
	assert.Equal(t, "Thies", nearest[1].Name)
	require.NotNil(t, nearest[0].DistanceKm)
	assert.Less(t, *nearest[0].DistanceKm, 5.0)
	assert.InDelta(t, 56, *nearest[1].DistanceKm, 5)

	all, err := svc.NearestStations(14.6928, -17.4467, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Saint-Louis", all[2].Name)

	_, err = svc.NearestStations(91, 0, 5)
	requireCode(t, err, errs.CodeValidation, http.StatusBadRequest)
}

func TestUpdateDailyStaff(t *testing.T) {
	svc := newStationService(t)
	station, err := svc.CreateStation(&models.FireStationRequest{Name: "Dakar Plateau", City: "Dakar", PersonnelCount: 40, DailyStaffCount: 10})
	require.NoError(t, err)

	updated, err := svc.UpdateDailyStaff(station.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.DailyStaffCount)
	assert.False(t, updated.IsStale)

	_, err = svc.UpdateDailyStaff(station.ID, 41)
	requireCode(t, err, errs.CodeValidation, http.StatusBadRequest)
	_, err = svc.UpdateDailyStaff(station.ID, -1)
	requireCode(t, err, errs.CodeValidation, http.StatusBadRequest)
	_, err = svc.UpdateDailyStaff(station.ID+10, 1)
	requireStatus(t, err, http.StatusNotFound)

	got, err := svc.GetStation(station.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.DailyStaffCount)
}

func TestUpdateStationLeavesDailyStaffAlone(t *testing.T) {
	svc := newStationService(t)
	station, err := svc.CreateStation(&models.FireStationRequest{Name: "Dakar Plateau", City: "Dakar", PersonnelCount: 40, DailyStaffCount: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, station.DailyStaffCount)

	_, err = svc.UpdateDailyStaff(station.ID, 25)
	require.NoError(t, err)

	updated, err := svc.UpdateStation(station.ID, &models.FireStationRequest{Name: "Dakar Plateau", City: "Dakar", Phone: "33 800 00 00", PersonnelCount: 45})
	require.NoError(t, err)
	assert.Equal(t, "33 800 00 00", updated.Phone)
	assert.Equal(t, 45, updated.PersonnelCount)
	assert.Equal(t, 25, updated.DailyStaffCount)
}

func TestStationStaleness(t *testing.T) {
	svc := newStationService(t)
	station, err := svc.CreateStation(&models.FireStationRequest{Name: "Rufisque", City: "Rufisque", PersonnelCount: 10})
	require.NoError(t, err)
	assert.False(t, station.IsStale)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	got, err := svc.GetStation(station.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStale)

	items, total, err := svc.ListStations("Rufisque", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsStale)

	require.NoError(t, svc.DeleteStation(station.ID))
	_, err = svc.GetStation(station.ID)
	requireStatus(t, err, http.StatusNotFound)
}
