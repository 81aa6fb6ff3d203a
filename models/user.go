package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a backend account. Only admins may mutate site content.
type User struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Email        string    `json:"email" db:"email" gorm:"type:text;not null;uniqueIndex"`
	Name         string    `json:"name" db:"name" gorm:"type:text;not null"`
	PasswordHash string    `json:"-" db:"password_hash" gorm:"type:text;not null"`
	Role         string    `json:"role" db:"role" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	if u.Role == "" {
		u.Role = RoleViewer
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
