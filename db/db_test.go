package db

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	gormDB, err := OpenSqlite(":memory:")
	require.NoError(t, err)
	require.NoError(t, SeedRoles(gormDB.DB))
	return gormDB
}

func createUser(t *testing.T, gormDB *GormDB, email string) *models.User {
	t.Helper()
	user, err := NewAuthRepo(gormDB).CreateUser(&models.User{
		Fullname:       "Test User",
		Email:          email,
		HashedPassword: "x",
	})
	require.NoError(t, err)
	return user
}

func TestListHousesPaginatesAndCounts(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewHouseRepo(gormDB)
	owner := createUser(t, gormDB, "owner@example.com")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		house := &models.House{
			UserID:       owner.ID,
			OwnerName:    fmt.Sprintf("Owner %d", i),
			City:         "Dakar",
			PropertyType: "house",
			Status:       models.HouseStatusPending,
		}
		house.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateHouse(house))
	}

	houses, total, err := repo.ListHouses(models.HouseFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
	assert.Len(t, houses, 100)
	assert.Equal(t, "Owner 149", houses[0].OwnerName)

	houses, total, err = repo.ListHouses(models.HouseFilter{Limit: 100, Offset: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
	assert.Len(t, houses, 50)
}

func TestListHousesFilters(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewHouseRepo(gormDB)
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	require.NoError(t, repo.CreateHouse(&models.House{UserID: alice.ID, OwnerName: "Alice Diallo", City: "Thies", Status: models.HouseStatusApproved}))
	require.NoError(t, repo.CreateHouse(&models.House{UserID: alice.ID, OwnerName: "Alice Diallo", City: "Dakar", Status: models.HouseStatusPending}))
	require.NoError(t, repo.CreateHouse(&models.House{UserID: bob.ID, OwnerName: "Bob Sow", City: "Dakar", Status: models.HouseStatusPending}))

	_, total, err := repo.ListHouses(models.HouseFilter{UserID: &alice.ID, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.ListHouses(models.HouseFilter{Status: models.HouseStatusPending, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	houses, total, err := repo.ListHouses(models.HouseFilter{Search: "SOW", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, bob.ID, houses[0].UserID)
}

func TestUpdateAnalysisMissingHouse(t *testing.T) {
	repo := NewHouseRepo(newTestDB(t))
	err := repo.UpdateAnalysis(404, `{}`, time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListHousesCreatedBetweenIsInclusive(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewHouseRepo(gormDB)
	owner := createUser(t, gormDB, "owner@example.com")

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{start.Add(-time.Hour), start, end, end.Add(time.Hour)} {
		house := &models.House{UserID: owner.ID, OwnerName: "x", Status: models.HouseStatusPending}
		house.CreatedAt = at
		require.NoError(t, repo.CreateHouse(house))
	}

	houses, err := repo.ListHousesCreatedBetween(start, end)
	require.NoError(t, err)
	assert.Len(t, houses, 2)
}

func TestCountByStatus(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM houses GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("approved", 2))

	counts, err := NewHouseRepo(&GormDB{DB: gdb}).CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"pending": 3, "approved": 2}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatusError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM houses GROUP BY status")).
		WillReturnError(fmt.Errorf("connection reset"))

	_, err = NewHouseRepo(&GormDB{DB: gdb}).CountByStatus()
	assert.Error(t, err)
}

func TestIncrementViewsOnlyForPublished(t *testing.T) {
	repo := NewBlogRepo(newTestDB(t))

	require.NoError(t, repo.CreatePost(&models.BlogPost{Title: "Live", Slug: "live", Content: "c", Status: models.BlogStatusPublished}))
	require.NoError(t, repo.CreatePost(&models.BlogPost{Title: "Draft", Slug: "draft", Content: "c", Status: models.BlogStatusDraft}))

	require.NoError(t, repo.IncrementViews("live"))
	require.NoError(t, repo.IncrementViews("live"))
	assert.ErrorIs(t, repo.IncrementViews("draft"), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.IncrementViews("missing"), gorm.ErrRecordNotFound)

	live, err := repo.GetPostBySlug("live")
	require.NoError(t, err)
	assert.Equal(t, int64(2), live.Views)

	draft, err := repo.GetPostBySlug("draft")
	require.NoError(t, err)
	assert.Equal(t, int64(0), draft.Views)
}

func TestUpsertTokenIsIdempotent(t *testing.T) {
	repo := NewPushTokenRepo(newTestDB(t))

	require.NoError(t, repo.UpsertToken(&models.PushToken{Provider: models.ProviderFCM, Subscription: "tok-1"}))
	require.NoError(t, repo.UpsertToken(&models.PushToken{Provider: models.ProviderExpo, Subscription: "tok-1"}))
	require.NoError(t, repo.UpsertToken(&models.PushToken{Provider: models.ProviderFCM, Subscription: "tok-2"}))

	tokens, err := repo.ListTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, models.ProviderExpo, tokens[0].Provider)

	require.NoError(t, repo.DeleteBySubscription("tok-2"))
	assert.ErrorIs(t, repo.DeleteBySubscription("tok-2"), gorm.ErrRecordNotFound)
}

func TestCreateUserAssignsDefaultRole(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewAuthRepo(gormDB)

	user := createUser(t, gormDB, "new@example.com")
	assert.Equal(t, models.RoleUser, user.Role.Name)
	assert.ErrorIs(t, repo.IsEmailExist("new@example.com"), ErrEmailExists)
	assert.NoError(t, repo.IsEmailExist("other@example.com"))
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	gormDB := newTestDB(t)
	require.NoError(t, SeedAdmin(gormDB.DB, "Admin", "admin@example.com", "hash"))
	require.NoError(t, SeedAdmin(gormDB.DB, "Admin", "admin@example.com", "hash"))

	admin, err := NewAuthRepo(gormDB).FindUserByEmail("admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	count, err := NewAuthRepo(gormDB).CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStaleStations(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewFireStationRepo(gormDB)

	station := &models.FireStation{Name: "Central", City: "Dakar", PersonnelCount: 40}
	require.NoError(t, repo.CreateStation(station))
	require.NoError(t, gormDB.DB.Model(station).UpdateColumn("updated_at", time.Now().UTC().Add(-48*time.Hour)).Error)

	stale, err := repo.CountStaleStations(time.Now().UTC().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale)

	updated, err := repo.UpdateDailyStaff(station.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.DailyStaffCount)

	stale, err = repo.CountStaleStations(time.Now().UTC().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), stale)
}

func TestUpdatePostKeepsConcurrentViews(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewBlogRepo(gormDB)
	post := &models.BlogPost{Title: "Exits", Slug: "exits", Content: "Keep them clear.", Status: models.BlogStatusPublished}
	require.NoError(t, repo.CreatePost(post))

	stale, err := repo.GetPostByID(post.ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViews("exits"))
	}

	stale.Category = "prevention"
	require.NoError(t, repo.UpdatePost(stale))

	stored, err := repo.GetPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "prevention", stored.Category)
	assert.Equal(t, int64(3), stored.Views)
}

func TestUpdateHouseKeepsConcurrentAnalysis(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewHouseRepo(gormDB)
	owner := createUser(t, gormDB, "owner@example.com")
	house := &models.House{UserID: owner.ID, OwnerName: "Awa", City: "Dakar", Status: models.HouseStatusPending}
	require.NoError(t, repo.CreateHouse(house))

	stale, err := repo.GetHouseByID(house.ID)
	require.NoError(t, err)
	analyzedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateAnalysis(house.ID, `{"summary":"fresh"}`, analyzedAt))

	stale.Phone = "+221 77 000 00 00"
	require.NoError(t, repo.UpdateHouse(stale))

	stored, err := repo.GetHouseByID(house.ID)
	require.NoError(t, err)
	assert.Equal(t, "+221 77 000 00 00", stored.Phone)
	require.NotNil(t, stored.PlanAnalysis)
	assert.JSONEq(t, `{"summary":"fresh"}`, *stored.PlanAnalysis)
	require.NotNil(t, stored.AnalysisUpdatedAt)
	assert.True(t, analyzedAt.Equal(*stored.AnalysisUpdatedAt))
}

func TestUpdateStationKeepsDailyStaff(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewFireStationRepo(gormDB)
	station := &models.FireStation{Name: "Central", City: "Dakar", PersonnelCount: 40, DailyStaffCount: 5}
	require.NoError(t, repo.CreateStation(station))

	stale, err := repo.GetStationByID(station.ID)
	require.NoError(t, err)
	_, err = repo.UpdateDailyStaff(station.ID, 12)
	require.NoError(t, err)

	stale.Phone = "33 800 00 00"
	require.NoError(t, repo.UpdateStation(stale))

	stored, err := repo.GetStationByID(station.ID)
	require.NoError(t, err)
	assert.Equal(t, "33 800 00 00", stored.Phone)
	assert.Equal(t, 12, stored.DailyStaffCount)
}
