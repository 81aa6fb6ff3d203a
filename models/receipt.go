package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Receipt struct {
	ID          uuid.UUID     `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID   *uuid.UUID    `json:"project_id,omitempty" db:"project_id" gorm:"type:uuid;index"`
	Vendor      string        `json:"vendor" db:"vendor" gorm:"type:text;not null"`
	PurchasedAt *time.Time    `json:"purchased_at,omitempty" db:"purchased_at"`
	Total       float64       `json:"total" db:"total" gorm:"not null"`
	Currency    string        `json:"currency" db:"currency" gorm:"type:text;not null"`
	ObjectKey   string        `json:"-" db:"object_key" gorm:"type:text;not null"`
	ImageURL    string        `json:"image_url,omitempty" db:"image_url" gorm:"type:text;not null"`
	ParseMethod string        `json:"parse_method" db:"parse_method" gorm:"type:text;not null"`
	RawText     string        `json:"raw_text,omitempty" db:"raw_text" gorm:"type:text;not null"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at" gorm:"index"`
	Items       []ReceiptItem `json:"items" gorm:"foreignKey:ReceiptID;references:ID;constraint:OnDelete:CASCADE"`
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

type ReceiptItem struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ReceiptID   uuid.UUID `json:"receipt_id" db:"receipt_id" gorm:"type:uuid;not null;index"`
	Description string    `json:"description" db:"description" gorm:"type:text;not null"`
	Quantity    float64   `json:"quantity" db:"quantity" gorm:"not null"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price" gorm:"not null"`
	Total       float64   `json:"total" db:"total" gorm:"not null"`
}

func (i *ReceiptItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
