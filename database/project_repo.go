package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-backend/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// ProjectFilter narrows FindAll. Zero values match everything.
type ProjectFilter struct {
	Kind     string
	Featured *bool
}

func (r *ProjectRepo) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("value asc") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Preload("Links", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") })
}

// FindAll returns projects in display order with tags, images and links
func (r *ProjectRepo) FindAll(ctx context.Context, filter ProjectFilter) ([]*models.Project, error) {
	query := r.withChildren(ctx)
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}

	var projects []*models.Project
	err := query.Order("sort_order asc").Order("created_at desc").Find(&projects).Error
	return projects, err
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.withChildren(ctx).First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := r.withChildren(ctx).First(&project, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Exists reports whether a project with id is stored.
func (r *ProjectRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// NextSortOrder returns one past the highest sort_order in use.
func (r *ProjectRepo) NextSortOrder(ctx context.Context) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Select("COALESCE(MAX(sort_order), -1) + 1").Row().Scan(&next)
	return next, err
}

// Add inserts a new project. Associations are written by their own repos.
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// Update saves the project's own columns.
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// SetCoverImage sets the cover only when the project does not have one yet.
func (r *ProjectRepo) SetCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND (cover_image_url IS NULL OR cover_image_url = '')", id).
		Update("cover_image_url", url).Error
}

// Reorder assigns sort_order by position in ids.
func (r *ProjectRepo) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.Project{}).Where("id = ?", id).Update("sort_order", i)
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

// Delete removes a project and everything hanging off it. Receipts are kept
// and detached.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{
			&models.ProjectTag{},
			&models.ProjectImage{},
			&models.ProjectLink{},
			&models.Comment{},
			&models.MaterialItem{},
			&models.TimeEntry{},
			&models.ProjectEmbedding{},
		} {
			if err := tx.Where("project_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Receipt{}).Where("project_id = ?", id).Update("project_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
