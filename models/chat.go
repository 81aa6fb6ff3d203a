package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession groups the messages exchanged with one visitor.
type ChatSession struct {
	ID           uuid.UUID     `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	VisitorID    string        `json:"visitor_id" db:"visitor_id" gorm:"type:text;not null;index"`
	IP           string        `json:"ip" db:"ip" gorm:"type:text;not null"`
	UserAgent    string        `json:"user_agent" db:"user_agent" gorm:"type:text;not null"`
	MessageCount int           `json:"message_count" db:"message_count" gorm:"not null"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at" gorm:"index"`
	Messages     []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type ChatMessage struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	SessionID uuid.UUID `json:"session_id" db:"session_id" gorm:"type:uuid;not null;index"`
	Role      string    `json:"role" db:"role" gorm:"type:text;not null"`
	Content   string    `json:"content" db:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
