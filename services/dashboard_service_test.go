package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/db"
	"github.com/techagentng/firesafe/models"
)

func TestDashboardStatsAndActivity(t *testing.T) {
	gormDB := newTestDB(t)
	houseRepo := db.NewHouseRepo(gormDB)
	stationRepo := db.NewFireStationRepo(gormDB)
	svc := NewDashboardService(houseRepo, db.NewAuthRepo(gormDB), db.NewBlogRepo(gormDB), db.NewReportRepo(gormDB), stationRepo, testConfig(), testLog).(*dashboardService)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"pending": 0, "approved": 0, "rejected": 0}, stats.HousesByStatus)
	assert.Zero(t, stats.TotalHouses)

	before := time.Now().Add(-time.Minute)
	owner := createTestUser(t, gormDB, "owner@example.com")
	createTestHouse(t, gormDB, owner)
	approved := createTestHouse(t, gormDB, owner)
	approved.Status = models.HouseStatusApproved
	require.NoError(t, houseRepo.UpdateHouse(approved))
	require.NoError(t, stationRepo.CreateStation(&models.FireStation{Name: "Dakar Plateau", City: "Dakar"}))

	blog := NewBlogService(db.NewBlogRepo(gormDB), nil, testConfig(), testLog)
	_, err = blog.CreatePost(context.Background(), &models.BlogPostRequest{Title: strPtr("Live"), Content: strPtr("x"), Status: strPtr("published")}, owner.ID)
	require.NoError(t, err)

	stats, err = svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"pending": 1, "approved": 1, "rejected": 0}, stats.HousesByStatus)
	assert.Equal(t, int64(2), stats.TotalHouses)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.PublishedPosts)
	assert.Equal(t, int64(1), stats.FireStations)
	assert.Zero(t, stats.StaleStations)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	stats, err = svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.StaleStations)

	svc.now = time.Now
	activity, err := svc.Activity(before)
	require.NoError(t, err)
	assert.Len(t, activity.Houses, 2)
	assert.Empty(t, activity.Reports)
	assert.NotNil(t, activity.Reports)
	assert.Equal(t, int64(1), activity.NewUsers)
	assert.True(t, activity.CheckedAt.After(before))

	activity, err = svc.Activity(activity.CheckedAt)
	require.NoError(t, err)
	assert.Empty(t, activity.Houses)
	assert.Zero(t, activity.NewUsers)
}
