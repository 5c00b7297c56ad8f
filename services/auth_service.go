package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	apiError "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/models"
	"github.com/techagentng/firesafe/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService interface
type AuthService interface {
	SignupUser(ctx context.Context, user *models.User) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	GetUserProfile(userID uint) (*models.User, error)
}

// authService struct
type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	bus      eventbus.Bus
	log      *logrus.Logger
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, bus eventbus.Bus, conf *config.Config, log *logrus.Logger) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
		bus:      bus,
		log:      log,
	}
}

func (s *authService) SignupUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.Email == "" {
		return nil, apiError.NewWithCode("email is required", apiError.CodeValidation, http.StatusBadRequest)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if err := models.ValidatePassword(user.Password); err != nil {
		return nil, apiError.NewWithCode(err.Error(), apiError.CodeValidation, http.StatusBadRequest)
	}

	if err := s.authRepo.IsEmailExist(user.Email); err != nil {
		if errors.Is(err, db.ErrEmailExists) {
			return nil, apiError.NewWithCode("email already in use", apiError.CodeDuplicateEmail, http.StatusBadRequest)
		}
		return nil, err
	}

	hashedPassword, err := GenerateHashPassword(user.Password)
	if err != nil {
		s.log.WithError(err).Error("unable to hash password")
		return nil, apiError.ErrInternalServerError
	}
	user.HashedPassword = hashedPassword
	user.Password = ""

	created, err := s.authRepo.CreateUser(user)
	if err != nil {
		if apiError.IsUniqueViolation(err) {
			return nil, apiError.GetUniqueContraintError(err, apiError.CodeDuplicateEmail)
		}
		s.log.WithError(err).Error("unable to create user")
		return nil, apiError.ErrInternalServerError
	}

	eventbus.PublishEvent(ctx, s.bus, s.log, eventbus.Users, eventbus.UserRegistered, created.ToResponse())
	return created, nil
}

func GenerateHashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashedPassword), err
}

// LoginUser logs in a user and returns the login response
func (s *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := s.authRepo.FindUserByEmail(strings.ToLower(strings.TrimSpace(loginRequest.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.ErrInvalidPassword
		}
		s.log.WithError(err).Error("error finding user by email")
		return nil, apiError.New("unable to find user", http.StatusInternalServerError)
	}

	if err := foundUser.VerifyPassword(loginRequest.Password); err != nil {
		return nil, apiError.ErrInvalidPassword
	}
	if foundUser.IsBlocked {
		return nil, apiError.InActiveUserError
	}

	accessToken, err := jwt.GenerateToken(foundUser.Email, s.Config.JWTSecret, foundUser.ID, foundUser.Role.Name)
	if err != nil {
		s.log.WithError(err).WithField("user_id", foundUser.ID).Error("error generating access token")
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: foundUser.ToResponse(),
		AccessToken:  accessToken,
	}, nil
}

func (s *authService) GetUserProfile(userID uint) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		return nil, err
	}
	return user, nil
}
