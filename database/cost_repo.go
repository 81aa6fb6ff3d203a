package database

import (
	"context"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type CostRepo struct {
	db *gorm.DB
}

func NewCostRepo(db *gorm.DB) *CostRepo {
	return &CostRepo{db}
}

// CostSummary aggregates what a project has consumed in money and time.
type CostSummary struct {
	ProjectID     uuid.UUID `json:"project_id"`
	MaterialCost  float64   `json:"material_cost"`
	MaterialCount int64     `json:"material_count"`
	TotalMinutes  int64     `json:"total_minutes"`
	TotalHours    float64   `json:"total_hours"`
	EntryCount    int64     `json:"entry_count"`
	ReceiptCount  int64     `json:"receipt_count"`
}

func (r *CostRepo) FindMaterials(ctx context.Context, projectID uuid.UUID) ([]*models.MaterialItem, error) {
	var items []*models.MaterialItem
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at asc").Find(&items).Error
	return items, err
}

func (r *CostRepo) FindMaterial(ctx context.Context, projectID, id uuid.UUID) (*models.MaterialItem, error) {
	var item models.MaterialItem
	if err := r.db.WithContext(ctx).First(&item, "id = ? AND project_id = ?", id, projectID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// AddMaterials inserts items together; an empty slice is a no-op.
func (r *CostRepo) AddMaterials(ctx context.Context, items ...*models.MaterialItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *CostRepo) UpdateMaterial(ctx context.Context, item *models.MaterialItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *CostRepo) DeleteMaterial(ctx context.Context, projectID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.MaterialItem{}, "id = ? AND project_id = ?", id, projectID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CostRepo) FindTimeEntries(ctx context.Context, projectID uuid.UUID) ([]*models.TimeEntry, error) {
	var entries []*models.TimeEntry
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("date desc").Find(&entries).Error
	return entries, err
}

func (r *CostRepo) AddTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *CostRepo) DeleteTimeEntry(ctx context.Context, projectID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.TimeEntry{}, "id = ? AND project_id = ?", id, projectID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Summary totals materials, time entries and attached receipts for a project.
func (r *CostRepo) Summary(ctx context.Context, projectID uuid.UUID) (*CostSummary, error) {
	var materials struct {
		Total float64
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.MaterialItem{}).
		Select("COALESCE(SUM(quantity * unit_cost), 0) AS total, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Scan(&materials).Error
	if err != nil {
		return nil, err
	}

	var logged struct {
		Minutes int64
		Count   int64
	}
	err = r.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Select("COALESCE(SUM(minutes), 0) AS minutes, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Scan(&logged).Error
	if err != nil {
		return nil, err
	}

	var receipts int64
	err = r.db.WithContext(ctx).Model(&models.Receipt{}).Where("project_id = ?", projectID).Count(&receipts).Error
	if err != nil {
		return nil, err
	}

	return &CostSummary{
		ProjectID:     projectID,
		MaterialCost:  math.Round(materials.Total*100) / 100,
		MaterialCount: materials.Count,
		TotalMinutes:  logged.Minutes,
		TotalHours:    math.Round(float64(logged.Minutes)/60*100) / 100,
		EntryCount:    logged.Count,
		ReceiptCount:  receipts,
	}, nil
}
