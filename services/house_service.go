package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/mailingservices"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

type HouseService interface {
	CreateHouse(ctx context.Context, req *models.HouseRequest, owner *models.User) (*models.HouseResponse, error)
	GetHouse(id uint, user *models.User) (*models.HouseResponse, error)
	ListHouses(filter models.HouseFilter, user *models.User) ([]models.HouseResponse, int64, error)
	UpdateHouse(ctx context.Context, id uint, req *models.HouseUpdateRequest, user *models.User) (*models.HouseResponse, error)
	DeleteHouse(ctx context.Context, id uint, user *models.User) error
}

type houseService struct {
	Config    *config.Config
	houseRepo db.HouseRepository
	authRepo  db.AuthRepository
	mailer    mailingservices.Mailer
	bus       eventbus.Bus
	log       *logrus.Logger
}

// NewHouseService builds the house service. mailer may be nil, in which case
// review decisions are not e-mailed.
func NewHouseService(houseRepo db.HouseRepository, authRepo db.AuthRepository, mailer mailingservices.Mailer, bus eventbus.Bus, conf *config.Config, log *logrus.Logger) HouseService {
	return &houseService{
		Config:    conf,
		houseRepo: houseRepo,
		authRepo:  authRepo,
		mailer:    mailer,
		bus:       bus,
		log:       log,
	}
}

func (h *houseService) CreateHouse(ctx context.Context, req *models.HouseRequest, owner *models.User) (*models.HouseResponse, error) {
	house := &models.House{
		UserID:           owner.ID,
		OwnerName:        req.OwnerName,
		Phone:            req.Phone,
		City:             req.City,
		District:         req.District,
		Street:           req.Street,
		Parcel:           req.Parcel,
		PropertyType:     req.PropertyType,
		Rooms:            req.Rooms,
		SurfaceArea:      req.SurfaceArea,
		Floors:           req.Floors,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		SensitiveObjects: models.EncodeStringList(req.SensitiveObjects),
		PhotoURLs:        models.EncodeStringList(req.PhotoURLs),
		DocumentURLs:     models.EncodeStringList(req.DocumentURLs),
		PlanURL:          nonEmpty(req.PlanURL),
		Status:           models.HouseStatusPending,
	}
	if err := h.houseRepo.CreateHouse(house); err != nil {
		return nil, err
	}

	resp := h.toResponse(house)
	eventbus.PublishEvent(ctx, h.bus, h.log, eventbus.Houses, eventbus.HouseCreated, resp)
	return resp, nil
}

func (h *houseService) GetHouse(id uint, user *models.User) (*models.HouseResponse, error) {
	house, err := h.loadOwned(id, user)
	if err != nil {
		return nil, err
	}
	return h.toResponse(house), nil
}

// ListHouses returns every house to admins and only their own to other users.
func (h *houseService) ListHouses(filter models.HouseFilter, user *models.User) ([]models.HouseResponse, int64, error) {
	if !user.IsAdmin() {
		filter.UserID = &user.ID
	}
	if filter.Status != "" && !models.Contains(models.HouseStatuses, filter.Status) {
		return nil, 0, errs.NewWithCode(fmt.Sprintf("unknown status %q", filter.Status), errs.CodeInvalidStatus, http.StatusBadRequest)
	}
	houses, total, err := h.houseRepo.ListHouses(filter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.HouseResponse, 0, len(houses))
	for i := range houses {
		items = append(items, *h.toResponse(&houses[i]))
	}
	return items, total, nil
}

// UpdateHouse applies a partial update. Owners may edit descriptive fields;
// only admins may change status or the rejection reason. A status change is
// stamped with the reviewer, mailed to the owner and published.
func (h *houseService) UpdateHouse(ctx context.Context, id uint, req *models.HouseUpdateRequest, user *models.User) (*models.HouseResponse, error) {
	house, err := h.loadOwned(id, user)
	if err != nil {
		return nil, err
	}

	if req.HasStatusChange() && !user.IsAdmin() {
		return nil, errs.New("only administrators may change the review status", http.StatusForbidden)
	}
	if req.PropertyType != nil {
		pt := strings.ToLower(strings.TrimSpace(*req.PropertyType))
		if !models.Contains(models.PropertyTypes, pt) {
			return nil, errs.NewWithCode(fmt.Sprintf("unknown property type %q", *req.PropertyType), errs.CodeValidation, http.StatusBadRequest)
		}
		house.PropertyType = pt
	}

	if blank(req.OwnerName) {
		return nil, errs.NewWithCode("owner_name cannot be empty", errs.CodeValidation, http.StatusBadRequest)
	}
	if blank(req.City) {
		return nil, errs.NewWithCode("city cannot be empty", errs.CodeValidation, http.StatusBadRequest)
	}
	applyString(&house.OwnerName, req.OwnerName)
	applyString(&house.Phone, req.Phone)
	applyString(&house.City, req.City)
	applyString(&house.District, req.District)
	applyString(&house.Street, req.Street)
	applyString(&house.Parcel, req.Parcel)
	if req.Rooms != nil {
		house.Rooms = *req.Rooms
	}
	if req.SurfaceArea != nil {
		house.SurfaceArea = *req.SurfaceArea
	}
	if req.Floors != nil {
		house.Floors = *req.Floors
	}
	if req.Latitude != nil {
		house.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		house.Longitude = req.Longitude
	}
	if req.SensitiveObjects != nil {
		house.SensitiveObjects = models.EncodeStringList(req.SensitiveObjects)
	}
	if req.PhotoURLs != nil {
		house.PhotoURLs = models.EncodeStringList(req.PhotoURLs)
	}
	if req.DocumentURLs != nil {
		house.DocumentURLs = models.EncodeStringList(req.DocumentURLs)
	}
	if req.PlanURL != nil {
		house.PlanURL = nonEmpty(req.PlanURL)
	}

	statusChanged := false
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !models.Contains(models.HouseStatuses, status) {
			return nil, errs.NewWithCode(fmt.Sprintf("unknown status %q", *req.Status), errs.CodeInvalidStatus, http.StatusBadRequest)
		}
		statusChanged = status != house.Status
		house.Status = status
		if status != models.HouseStatusRejected && req.RejectionReason == nil {
			house.RejectionReason = nil
		}
	}
	if req.RejectionReason != nil {
		house.RejectionReason = nonEmpty(req.RejectionReason)
	}
	if req.HasStatusChange() {
		now := time.Now().UTC()
		house.ReviewedBy = &user.ID
		house.ReviewedAt = &now
	}

	if err := h.houseRepo.UpdateHouse(house); err != nil {
		return nil, err
	}
	if stored, err := h.houseRepo.GetHouseByID(id); err == nil {
		house.PlanAnalysis = stored.PlanAnalysis
		house.AnalysisUpdatedAt = stored.AnalysisUpdatedAt
	}

	resp := h.toResponse(house)
	if statusChanged {
		h.notifyOwner(ctx, house)
		eventbus.PublishEvent(ctx, h.bus, h.log, eventbus.Houses, eventbus.HouseStatusChanged, resp)
	} else {
		eventbus.PublishEvent(ctx, h.bus, h.log, eventbus.Houses, eventbus.HouseUpdated, resp)
	}
	return resp, nil
}

func (h *houseService) DeleteHouse(ctx context.Context, id uint, user *models.User) error {
	if _, err := h.loadOwned(id, user); err != nil {
		return err
	}
	if err := h.houseRepo.DeleteHouse(id); err != nil {
		return err
	}
	eventbus.PublishEvent(ctx, h.bus, h.log, eventbus.Houses, eventbus.HouseDeleted, map[string]uint{"id": id})
	return nil
}

func (h *houseService) loadOwned(id uint, user *models.User) (*models.House, error) {
	house, err := h.houseRepo.GetHouseByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New("house not found", http.StatusNotFound)
		}
		return nil, err
	}
	if !user.IsAdmin() && house.UserID != user.ID {
		return nil, errs.ErrForbidden
	}
	return house, nil
}

// notifyOwner mails the review decision. Mail failures never fail the update.
func (h *houseService) notifyOwner(ctx context.Context, house *models.House) {
	if h.mailer == nil {
		return
	}
	owner, err := h.authRepo.FindUserByID(house.UserID)
	if err != nil {
		h.log.WithError(err).WithField("house_id", house.ID).Warn("unable to load house owner for review mail")
		return
	}
	reason := ""
	if house.RejectionReason != nil {
		reason = *house.RejectionReason
	}
	var parts []string
	for _, part := range []string{house.Street, house.District, house.City} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	address := strings.Join(parts, ", ")
	subject, body := mailingservices.HouseStatusMail(house.OwnerName, address, house.Status, reason)
	if err := h.mailer.SendMail(ctx, subject, body, owner.Email); err != nil {
		h.log.WithError(err).WithField("house_id", house.ID).Error("unable to send review mail")
	}
}

func (h *houseService) toResponse(house *models.House) *models.HouseResponse {
	resp, degraded := house.ToResponse()
	if len(degraded) > 0 {
		h.log.WithFields(logrus.Fields{
			"house_id": house.ID,
			"fields":   degraded,
		}).Warn("malformed stored JSON returned as empty")
	}
	return &resp
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// blank reports whether a provided value trims to nothing.
func blank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
