package models

import "github.com/google/uuid"

// Role is seeded at startup; every user carries one.
type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"uniqueIndex" json:"name"`
}

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)
