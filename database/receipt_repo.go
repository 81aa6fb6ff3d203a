package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type ReceiptRepo struct {
	db *gorm.DB
}

func NewReceiptRepo(db *gorm.DB) *ReceiptRepo {
	return &ReceiptRepo{db}
}

// FindAll lists receipts newest first; a non-nil projectID restricts to that project.
func (r *ReceiptRepo) FindAll(ctx context.Context, projectID *uuid.UUID) ([]*models.Receipt, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}

	var receipts []*models.Receipt
	err := query.Order("created_at desc").Find(&receipts).Error
	return receipts, err
}

func (r *ReceiptRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := r.db.WithContext(ctx).Preload("Items").First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Add stores the receipt with its items, and any materials derived from it, atomically.
func (r *ReceiptRepo) Add(ctx context.Context, receipt *models.Receipt, materials ...*models.MaterialItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(receipt).Error; err != nil {
			return err
		}
		for _, m := range materials {
			m.ReceiptID = &receipt.ID
		}
		if len(materials) > 0 {
			return tx.Create(materials).Error
		}
		return nil
	})
}

// Delete removes the receipt and its items. Materials imported from it stay but lose the link.
func (r *ReceiptRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receipt_id = ?", id).Delete(&models.ReceiptItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MaterialItem{}).Where("receipt_id = ?", id).Update("receipt_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Receipt{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
