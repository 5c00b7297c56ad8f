package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/logger"
	"github.com/techagentng/firesafe/models"
)

var testLog = logger.Discard()

func newTestDB(t *testing.T) *db.GormDB {
	t.Helper()
	gormDB, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.SeedRoles(gormDB.DB))
	return gormDB
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		BaseUrl:           "https://firesafe.example",
		GeminiApiKey:      "test-key",
		GeminiModel:       "gemini-test",
		StationStaleAfter: 24 * time.Hour,
	}
}

func createTestUser(t *testing.T, gormDB *db.GormDB, email string) *models.User {
	t.Helper()
	user, err := db.NewAuthRepo(gormDB).CreateUser(&models.User{
		Fullname:       "Test User",
		Email:          email,
		HashedPassword: "x",
	})
	require.NoError(t, err)
	return user
}

func createTestAdmin(t *testing.T, gormDB *db.GormDB, email string) *models.User {
	t.Helper()
	authRepo := db.NewAuthRepo(gormDB)
	role, err := authRepo.FindRoleByName(models.RoleAdmin)
	require.NoError(t, err)
	user, err := authRepo.CreateUser(&models.User{
		Fullname:       "Admin User",
		Email:          email,
		HashedPassword: "x",
		RoleID:         role.ID,
	})
	require.NoError(t, err)
	return user
}

func createTestHouse(t *testing.T, gormDB *db.GormDB, owner *models.User) *models.House {
	t.Helper()
	house := &models.House{
		UserID:       owner.ID,
		OwnerName:    owner.Fullname,
		City:         "Dakar",
		PropertyType: "house",
		Status:       models.HouseStatusPending,
	}
	require.NoError(t, db.NewHouseRepo(gormDB).CreateHouse(house))
	return house
}

// requireCode asserts err is an API error with the given code and status.
func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr), "expected *errors.Error, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code)
	require.Equal(t, status, apiErr.Status)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr), "expected *errors.Error, got %T: %v", err, err)
	require.Equal(t, status, apiErr.Status)
}

// recordingBus keeps every published event and delivers nothing.
type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, evt eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) Subscribe(eventbus.Channel, eventbus.Handler) func() {
	return func() {}
}

func (b *recordingBus) types(channel eventbus.Channel) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, evt := range b.events {
		if evt.Channel == channel {
			out = append(out, evt.Type)
		}
	}
	return out
}
