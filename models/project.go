package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectKindHobby = "hobby"
	ProjectKindWork  = "work"

	ProjectStatusPlanned = "planned"
	ProjectStatusActive  = "active"
	ProjectStatusDone    = "done"
)

// Project is a portfolio entry, either a hobby or a work item
type Project struct {
	ID            uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title         string         `json:"title" db:"title" gorm:"type:text;not null;uniqueIndex"`
	Slug          string         `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex"`
	Summary       string         `json:"summary" db:"summary" gorm:"type:text;not null"`
	Description   string         `json:"description" db:"description" gorm:"type:text;not null"`
	Kind          string         `json:"kind" db:"kind" gorm:"type:text;not null;index"`
	Status        string         `json:"status" db:"status" gorm:"type:text;not null"`
	Featured      bool           `json:"featured" db:"featured" gorm:"not null"`
	SortOrder     int            `json:"sort_order" db:"sort_order" gorm:"not null;index"`
	CoverImageURL *string        `json:"cover_image_url,omitempty" db:"cover_image_url" gorm:"type:text"`
	StartedAt     *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	Tags          []ProjectTag   `json:"tags" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Images        []ProjectImage `json:"images" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Links         []ProjectLink  `json:"links" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	if p.Kind == "" {
		p.Kind = ProjectKindHobby
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	return nil
}

// TagValues flattens the tag rows.
func (p *Project) TagValues() []string {
	values := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		values = append(values, tag.Value)
	}
	return values
}
