package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type AnalyticsRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsRepo(db *gorm.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db, now: utcNow}
}

type PathCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

type AnalyticsSummary struct {
	Since          time.Time        `json:"since"`
	Totals         map[string]int64 `json:"totals"`
	UniqueVisitors int64            `json:"unique_visitors"`
	TopPaths       []PathCount      `json:"top_paths"`
}

// RecordUnlessDuplicate inserts event unless the same visitor already produced
// an event with the same type and path inside window. It reports whether the
// event was stored.
func (r *AnalyticsRepo) RecordUnlessDuplicate(ctx context.Context, event *models.AnalyticsEvent, window time.Duration) (bool, error) {
	now := r.now()
	recorded := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&models.AnalyticsEvent{}).
			Where("visitor_id = ? AND type = ? AND path = ? AND created_at > ?",
				event.VisitorID, event.Type, event.Path, now.Add(-window)).
			Limit(1).
			Count(&existing).Error
		if err != nil || existing > 0 {
			return err
		}

		event.CreatedAt = now
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return recorded, nil
}

// Summary aggregates events created after since.
func (r *AnalyticsRepo) Summary(ctx context.Context, since time.Time, topN int) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{Since: since, Totals: map[string]int64{}}

	var totals []struct {
		Type  string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("type, COUNT(*) AS count").
		Where("created_at > ?", since).
		Group("type").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		summary.Totals[t.Type] = t.Count
	}

	err = r.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Where("created_at > ?", since).
		Distinct("visitor_id").
		Count(&summary.UniqueVisitors).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("path, COUNT(*) AS count").
		Where("created_at > ? AND type = ?", since, models.EventPageView).
		Group("path").
		Order("count desc").
		Limit(topN).
		Scan(&summary.TopPaths).Error
	if err != nil {
		return nil, err
	}

	return summary, nil
}
