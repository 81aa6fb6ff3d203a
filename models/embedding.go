package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// EmbeddingDimensions matches the gateway's default embedding model.
const EmbeddingDimensions = 1536

// ProjectEmbedding holds the vector used to pick project context for chat replies.
type ProjectEmbedding struct {
	ID        uuid.UUID       `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID       `json:"project_id" db:"project_id" gorm:"type:uuid;not null;uniqueIndex"`
	Content   string          `json:"content" db:"content" gorm:"type:text;not null"`
	Embedding pgvector.Vector `json:"-" db:"embedding" gorm:"type:vector(1536)"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (e *ProjectEmbedding) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
