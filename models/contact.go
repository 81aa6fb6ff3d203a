package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactSubmission is a message sent through the public contact form.
type ContactSubmission struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null"`
	Email     string    `json:"email" db:"email" gorm:"type:text;not null"`
	Subject   string    `json:"subject" db:"subject" gorm:"type:text;not null"`
	Message   string    `json:"message" db:"message" gorm:"type:text;not null"`
	IP        string    `json:"ip" db:"ip" gorm:"type:text;not null"`
	Read      bool      `json:"read" db:"read" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

func (s *ContactSubmission) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
