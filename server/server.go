package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/services"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Server holds the http handlers' dependencies.
type Server struct {
	Config              *config.Config
	Log                 *logrus.Logger
	Bus                 eventbus.Bus
	AuthRepository      db.AuthRepository
	AuthService         services.AuthService
	HouseService        services.HouseService
	MediaService        services.MediaService
	BlogService         services.BlogService
	AnalysisService     services.AnalysisService
	NotificationService services.NotificationService
	ReportService       services.ReportService
	DashboardService    services.DashboardService
	FireStationService  services.FireStationService
}

// Start serves until SIGINT/SIGTERM and then drains in-flight requests.
func (s *Server) Start() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.Port),
		Handler: s.setupRouter(),
	}

	go func() {
		s.Log.WithField("port", s.Config.Port).Info("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	s.Log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.Log.WithError(err).Error("server forced to shutdown")
	}
}

// decode binds the JSON body into v and runs its validate tags.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errs.NewWithCode(err.Error(), errs.CodeValidation, http.StatusBadRequest)
	}
	if validationErrs := models.ValidateStruct(v); len(validationErrs) > 0 {
		return errs.NewWithCode(models.JoinErrors(validationErrs), errs.CodeValidation, http.StatusBadRequest)
	}
	return nil
}

func GetUserFromContext(c *gin.Context) (*models.User, error) {
	if userI, exists := c.Get("user"); exists {
		if user, ok := userI.(*models.User); ok {
			return user, nil
		}
	}
	return nil, errs.New("user is not logged in", http.StatusUnauthorized)
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewWithCode(fmt.Sprintf("invalid %s", name), errs.CodeInvalidID, http.StatusBadRequest)
	}
	return uint(id), nil
}

// pagination reads limit and offset, defaulting limit to 20 and capping it
// at 100. Malformed or negative values fall back to the defaults.
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func listResponse(items interface{}, total int64, limit, offset int) models.ListResponse {
	return models.ListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}
