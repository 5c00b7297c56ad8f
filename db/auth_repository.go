package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/firesafe/models"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	FindRoleByName(name string) (*models.Role, error)
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
	CountUsers() (int64, error)
	CountUsersSince(since time.Time) (int64, error)
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

// ErrEmailExists is returned by IsEmailExist when the address is taken.
var ErrEmailExists = errors.New("email already in use")

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}

	if user.RoleID == uuid.Nil {
		role, err := a.FindRoleByName(models.RoleUser)
		if err != nil {
			return nil, errors.Wrap(err, "default role")
		}
		user.RoleID = role.ID
	}

	if err := a.DB.Omit("Role").Create(user).Error; err != nil {
		return nil, err
	}
	return a.FindUserByID(user.ID)
}

func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm.count error")
	}
	if count > 0 {
		return ErrEmailExists
	}
	return nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := a.DB.Preload("Role").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	err := a.DB.Preload("Role").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindRoleByName(name string) (*models.Role, error) {
	var role models.Role
	if err := a.DB.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	return a.DB.Create(blacklist).Error
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	a.DB.Model(&models.Blacklist{}).Where("token = ?", strings.TrimSpace(token)).Count(&count)
	return count > 0
}

func (a *authRepo) CountUsers() (int64, error) {
	var count int64
	err := a.DB.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (a *authRepo) CountUsersSince(since time.Time) (int64, error) {
	var count int64
	err := a.DB.Model(&models.User{}).Where("created_at > ?", since).Count(&count).Error
	return count, err
}
