package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

func (r *CommentRepo) FindByProject(ctx context.Context, projectID uuid.UUID, approvedOnly bool) ([]*models.Comment, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}

	var comments []*models.Comment
	err := query.Order("created_at asc").Find(&comments).Error
	return comments, err
}

// FindAll lists comments newest first, optionally only those awaiting approval.
func (r *CommentRepo) FindAll(ctx context.Context, pendingOnly bool) ([]*models.Comment, error) {
	query := r.db.WithContext(ctx)
	if pendingOnly {
		query = query.Where("approved = ?", false)
	}

	var comments []*models.Comment
	err := query.Order("created_at desc").Find(&comments).Error
	return comments, err
}

func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepo) Approve(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
