package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialItem is something bought for a project, optionally imported from a receipt.
type MaterialItem struct {
	ID          uuid.UUID  `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID   uuid.UUID  `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index"`
	ReceiptID   *uuid.UUID `json:"receipt_id,omitempty" db:"receipt_id" gorm:"type:uuid;index"`
	Name        string     `json:"name" db:"name" gorm:"type:text;not null"`
	Quantity    float64    `json:"quantity" db:"quantity" gorm:"not null"`
	UnitCost    float64    `json:"unit_cost" db:"unit_cost" gorm:"not null"`
	Vendor      string     `json:"vendor" db:"vendor" gorm:"type:text;not null"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty" db:"purchased_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func (m *MaterialItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// LineTotal is quantity times unit cost, rounded to cents.
func (m *MaterialItem) LineTotal() float64 {
	return math.Round(m.Quantity*m.UnitCost*100) / 100
}

// TimeEntry records minutes spent on a project on a given day.
type TimeEntry struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index"`
	Date      time.Time `json:"date" db:"date" gorm:"not null"`
	Minutes   int       `json:"minutes" db:"minutes" gorm:"not null"`
	Note      string    `json:"note" db:"note" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (e *TimeEntry) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
