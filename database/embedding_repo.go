package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-backend/models"
)

type EmbeddingRepo struct {
	db *gorm.DB
}

func NewEmbeddingRepo(db *gorm.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db}
}

// Upsert stores the project's embedding, replacing any previous one.
func (r *EmbeddingRepo) Upsert(ctx context.Context, projectID uuid.UUID, content string, embedding []float32) error {
	row := &models.ProjectEmbedding{
		ProjectID: projectID,
		Content:   content,
		Embedding: pgvector.NewVector(embedding),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "embedding", "updated_at"}),
	}).Create(row).Error
}

// Nearest returns the k projects whose embeddings are closest to embedding by L2 distance.
func (r *EmbeddingRepo) Nearest(ctx context.Context, embedding []float32, k int) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Joins("JOIN project_embeddings ON project_embeddings.project_id = projects.id").
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:  "project_embeddings.embedding <-> ?",
				Vars: []interface{}{pgvector.NewVector(embedding)},
			},
		}).
		Limit(k).
		Find(&projects).Error
	return projects, err
}
