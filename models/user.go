package models

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user of the application
type User struct {
	Model
	Fullname       string    `json:"fullname" binding:"required,min=2"`
	Telephone      string    `json:"telephone" gorm:"default:null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null" binding:"required,email"`
	Password       string    `json:"password,omitempty" gorm:"-" binding:"required"`
	HashedPassword string    `json:"-"`
	IsBlocked      bool      `json:"is_blocked" gorm:"default:false"`
	RoleID         uuid.UUID `gorm:"type:uuid" json:"role_id"`
	Role           Role      `gorm:"foreignKey:RoleID" json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

// Blacklist holds access tokens revoked on logout.
type Blacklist struct {
	Model
	Token string `json:"token" gorm:"index"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Fullname  string `json:"fullname"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
	RoleName  string `json:"role_name"`
}

type LoginResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Fullname:  u.Fullname,
		Telephone: u.Telephone,
		Email:     u.Email,
		RoleName:  u.Role.Name,
	}
}
