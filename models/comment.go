package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID   uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index"`
	AuthorName  string    `json:"author_name" db:"author_name" gorm:"type:text;not null"`
	AuthorEmail string    `json:"author_email,omitempty" db:"author_email" gorm:"type:text;not null"`
	Body        string    `json:"body" db:"body" gorm:"type:text;not null"`
	Approved    bool      `json:"approved" db:"approved" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
