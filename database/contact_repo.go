package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type ContactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) *ContactRepo {
	return &ContactRepo{db}
}

func (r *ContactRepo) FindAll(ctx context.Context, unreadOnly bool) ([]*models.ContactSubmission, error) {
	query := r.db.WithContext(ctx)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var submissions []*models.ContactSubmission
	err := query.Order("created_at desc").Find(&submissions).Error
	return submissions, err
}

func (r *ContactRepo) Add(ctx context.Context, submission *models.ContactSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *ContactRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.ContactSubmission{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContactRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.ContactSubmission{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
