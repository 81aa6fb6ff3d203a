package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/models"
)

// EmbeddingStore persists one embedding per project.
type EmbeddingStore interface {
	Upsert(ctx context.Context, projectID uuid.UUID, content string, embedding []float32) error
}

// ProjectIndexer keeps project embeddings in step with project content.
type ProjectIndexer struct {
	llm   LLM
	store EmbeddingStore
}

func NewProjectIndexer(llm LLM, store EmbeddingStore) *ProjectIndexer {
	return &ProjectIndexer{llm: llm, store: store}
}

func (i *ProjectIndexer) Index(ctx context.Context, project *models.Project) error {
	content := ProjectDocument(project)
	vectors, err := i.llm.Embed(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("failed to embed project %s: %w", project.ID, err)
	}
	if len(vectors) == 0 {
		return errors.New("gateway returned no embeddings")
	}
	if len(vectors[0]) != models.EmbeddingDimensions {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(vectors[0]), models.EmbeddingDimensions)
	}
	return i.store.Upsert(ctx, project.ID, content, vectors[0])
}

// ProjectDocument is the text embedded for a project.
func ProjectDocument(p *models.Project) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Summary != "" {
		b.WriteString("\n")
		b.WriteString(p.Summary)
	}
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.Description)
	}
	if tags := p.TagValues(); len(tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(tags, ", "))
	}
	return b.String()
}
