package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectImage is an uploaded picture stored in the object store.
type ProjectImage struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index"`
	URL       string    `json:"url" db:"url" gorm:"type:text;not null"`
	ObjectKey string    `json:"-" db:"object_key" gorm:"type:text;not null"`
	Caption   string    `json:"caption" db:"caption" gorm:"type:text;not null"`
	SortOrder int       `json:"sort_order" db:"sort_order" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (i *ProjectImage) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

const (
	LinkKindGithub  = "github"
	LinkKindDemo    = "demo"
	LinkKindArticle = "article"
	LinkKindVideo   = "video"
	LinkKindOther   = "other"
)

// ProjectLink points at an external resource for a project.
type ProjectLink struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index"`
	Label     string    `json:"label" db:"label" gorm:"type:text;not null"`
	URL       string    `json:"url" db:"url" gorm:"type:text;not null"`
	Kind      string    `json:"kind" db:"kind" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (l *ProjectLink) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	if l.Kind == "" {
		l.Kind = LinkKindOther
	}
	return nil
}
