package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/services/jwt"
)

func TestSignupAndLogin(t *testing.T) {
	gormDB := newTestDB(t)
	bus := &recordingBus{}
	conf := testConfig()
	svc := NewAuthService(db.NewAuthRepo(gormDB), bus, conf, testLog)
	ctx := context.Background()

	user, err := svc.SignupUser(ctx, &models.User{Fullname: "Awa Diop", Email: " Awa@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "awa@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role.Name)
	assert.NotEqual(t, "secret123", user.HashedPassword)
	assert.Equal(t, []string{eventbus.UserRegistered}, bus.types(eventbus.Users))

	_, err = svc.SignupUser(ctx, &models.User{Fullname: "Awa Again", Email: "awa@example.com", Password: "secret123"})
	requireCode(t, err, errs.CodeDuplicateEmail, http.StatusBadRequest)

	_, err = svc.SignupUser(ctx, &models.User{Fullname: "Short", Email: "short@example.com", Password: "abc"})
	requireCode(t, err, errs.CodeValidation, http.StatusBadRequest)

	resp, apiErr := svc.LoginUser(&models.LoginRequest{Email: "AWA@example.com", Password: "secret123"})
	require.Nil(t, apiErr)
	assert.Equal(t, user.ID, resp.ID)
	claims, err := jwt.ValidateAndGetClaims(resp.AccessToken, conf.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "awa@example.com", claims["email"])

	_, apiErr = svc.LoginUser(&models.LoginRequest{Email: "awa@example.com", Password: "wrong-password"})
	assert.Equal(t, errs.ErrInvalidPassword, apiErr)
	_, apiErr = svc.LoginUser(&models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, errs.ErrInvalidPassword, apiErr)

	require.NoError(t, gormDB.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("is_blocked", true).Error)
	_, apiErr = svc.LoginUser(&models.LoginRequest{Email: "awa@example.com", Password: "secret123"})
	assert.Equal(t, errs.InActiveUserError, apiErr)

	profile, err := svc.GetUserProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Awa Diop", profile.Fullname)
	_, err = svc.GetUserProfile(user.ID + 50)
	requireStatus(t, err, http.StatusNotFound)
}
