package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventPageView    = "page_view"
	EventProjectView = "project_view"
	EventLinkClick   = "link_click"
	EventChatOpen    = "chat_open"
	EventContactOpen = "contact_open"
)

// AnalyticsEvent is one deduplicated visitor interaction.
type AnalyticsEvent struct {
	ID        uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Type      string         `json:"type" db:"type" gorm:"type:text;not null;index:idx_analytics_dedupe,priority:2"`
	Path      string         `json:"path" db:"path" gorm:"type:text;not null;index:idx_analytics_dedupe,priority:3"`
	ProjectID *uuid.UUID     `json:"project_id,omitempty" db:"project_id" gorm:"type:uuid;index"`
	VisitorID string         `json:"visitor_id" db:"visitor_id" gorm:"type:text;not null;index:idx_analytics_dedupe,priority:1"`
	Referrer  string         `json:"referrer" db:"referrer" gorm:"type:text;not null"`
	UserAgent string         `json:"user_agent" db:"user_agent" gorm:"type:text;not null"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at" gorm:"index:idx_analytics_dedupe,priority:4"`
}

func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
