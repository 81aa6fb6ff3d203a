package models

import "github.com/google/uuid"

// AllModels lists every persisted entity in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectTag{},
		&ProjectImage{},
		&ProjectLink{},
		&Comment{},
		&ContactSubmission{},
		&ChatSession{},
		&ChatMessage{},
		&Receipt{},
		&ReceiptItem{},
		&MaterialItem{},
		&TimeEntry{},
		&AnalyticsEvent{},
		&ProjectEmbedding{},
	}
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
