package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type ProjectImageRepo struct {
	db *gorm.DB
}

func NewProjectImageRepo(db *gorm.DB) *ProjectImageRepo {
	return &ProjectImageRepo{db}
}

func (r *ProjectImageRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectImage, error) {
	var images []*models.ProjectImage
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("sort_order asc").Find(&images).Error
	return images, err
}

// FindByID scopes the lookup to the owning project.
func (r *ProjectImageRepo) FindByID(ctx context.Context, projectID, id uuid.UUID) (*models.ProjectImage, error) {
	var image models.ProjectImage
	err := r.db.WithContext(ctx).First(&image, "id = ? AND project_id = ?", id, projectID).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ProjectImageRepo) NextSortOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Model(&models.ProjectImage{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(sort_order), -1) + 1").Row().Scan(&next)
	return next, err
}

func (r *ProjectImageRepo) Add(ctx context.Context, image *models.ProjectImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *ProjectImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ProjectImage{}, "id = ?", id).Error
}

// Reorder assigns sort_order by position in ids; every id must belong to projectID.
func (r *ProjectImageRepo) Reorder(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.ProjectImage{}).
				Where("id = ? AND project_id = ?", id, projectID).
				Update("sort_order", i)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

type ProjectLinkRepo struct {
	db *gorm.DB
}

func NewProjectLinkRepo(db *gorm.DB) *ProjectLinkRepo {
	return &ProjectLinkRepo{db}
}

func (r *ProjectLinkRepo) Add(ctx context.Context, link *models.ProjectLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *ProjectLinkRepo) Delete(ctx context.Context, projectID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.ProjectLink{}, "id = ? AND project_id = ?", id, projectID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
