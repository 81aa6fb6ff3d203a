package api

import (
	"context"

	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler      authHandler
	projectHandler   projectHandler
	mediaHandler     mediaHandler
	commentHandler   commentHandler
	contactHandler   contactHandler
	chatHandler      chatHandler
	costHandler      costHandler
	receiptHandler   receiptHandler
	analyticsHandler analyticsHandler
	userHandler      userHandler
	healthHandler    healthHandler
}

// Dependencies are the outbound integrations handlers use. Any of them may be
// nil; the routes that need a missing one answer 503.
type Dependencies struct {
	Chat     *services.ChatService
	Parser   *services.ReceiptParser
	Store    services.ObjectStore
	Notifier services.ContactNotifier
	Indexer  projectIndexer
	// Federated verifies tokens we did not issue ourselves.
	Federated TokenVerifier
}

type projectIndexer interface {
	Index(ctx context.Context, project *models.Project) error
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// ListResponse wraps collections with their size.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}
