package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type ProjectTagRepo struct {
	db *gorm.DB
}

func NewProjectTagRepo(db *gorm.DB) *ProjectTagRepo {
	return &ProjectTagRepo{db}
}

// FindAll returns every distinct tag value in use
func (r *ProjectTagRepo) FindAll(ctx context.Context) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).Model(&models.ProjectTag{}).
		Distinct("value").Order("value asc").Pluck("value", &values).Error
	return values, err
}

func (r *ProjectTagRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectTag, error) {
	var tags []*models.ProjectTag
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("value asc").Find(&tags).Error
	return tags, err
}

// Replace swaps the project's tags for values, trimmed and de-duplicated.
func (r *ProjectTagRepo) Replace(ctx context.Context, projectID uuid.UUID, values []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectTag{}).Error; err != nil {
			return err
		}

		seen := make(map[string]bool, len(values))
		for _, value := range values {
			value = strings.ToLower(strings.TrimSpace(value))
			if value == "" || seen[value] {
				continue
			}
			seen[value] = true
			if err := tx.Create(&models.ProjectTag{ProjectID: projectID, Value: value}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
