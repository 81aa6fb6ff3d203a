package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/rpupo63/portfolio-backend/metrics"
)

// setupRoutes registers public routes and the admin-only ones behind authMiddleware.admin.
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, visitors visitorTracker) {
	r.Get("/health", handlers.healthHandler.health())
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/login", handlers.authHandler.login())
			r.Post("/auth/logout", handlers.authHandler.logout())

			r.Get("/projects", handlers.projectHandler.getAllProjects())
			r.Get("/projects/{projectID}", handlers.projectHandler.getProject())
			r.Get("/tags", handlers.projectHandler.getAllTags())

			r.Get("/projects/{projectID}/comments", handlers.commentHandler.getProjectComments())
			r.Post("/projects/{projectID}/comments", handlers.commentHandler.createComment())
			r.Get("/projects/{projectID}/costs", handlers.costHandler.getSummary())

			r.Post("/contact", handlers.contactHandler.submitContact())
			r.Post("/receipts/parse", handlers.receiptHandler.parseReceipt())
		})

		// Anonymous visitor routes
		r.Group(func(r chi.Router) {
			r.Use(visitors.middleware)

			r.Post("/chat", handlers.chatHandler.streamChat())
			r.Post("/analytics/events", handlers.analyticsHandler.recordEvent())
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.authenticate)
			r.Get("/auth/me", handlers.authHandler.me())
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(auth.admin)

			r.Post("/projects", handlers.projectHandler.createProject())
			r.Put("/projects/order", handlers.projectHandler.reorderProjects())
			r.Put("/projects/{projectID}", handlers.projectHandler.updateProject())
			r.Delete("/projects/{projectID}", handlers.projectHandler.deleteProject())

			r.Post("/projects/{projectID}/images", handlers.mediaHandler.uploadImages())
			r.Put("/projects/{projectID}/images/order", handlers.mediaHandler.reorderImages())
			r.Delete("/projects/{projectID}/images/{imageID}", handlers.mediaHandler.deleteImage())
			r.Post("/projects/{projectID}/links", handlers.mediaHandler.createLink())
			r.Delete("/projects/{projectID}/links/{linkID}", handlers.mediaHandler.deleteLink())

			r.Get("/projects/{projectID}/materials", handlers.costHandler.getMaterials())
			r.Post("/projects/{projectID}/materials", handlers.costHandler.createMaterial())
			r.Put("/projects/{projectID}/materials/{materialID}", handlers.costHandler.updateMaterial())
			r.Delete("/projects/{projectID}/materials/{materialID}", handlers.costHandler.deleteMaterial())
			r.Get("/projects/{projectID}/time-entries", handlers.costHandler.getTimeEntries())
			r.Post("/projects/{projectID}/time-entries", handlers.costHandler.createTimeEntry())
			r.Delete("/projects/{projectID}/time-entries/{entryID}", handlers.costHandler.deleteTimeEntry())

			r.Get("/comments", handlers.commentHandler.getAllComments())
			r.Put("/comments/{commentID}/approve", handlers.commentHandler.approveComment())
			r.Delete("/comments/{commentID}", handlers.commentHandler.deleteComment())

			r.Get("/contact", handlers.contactHandler.getAllSubmissions())
			r.Put("/contact/{submissionID}/read", handlers.contactHandler.markRead())
			r.Delete("/contact/{submissionID}", handlers.contactHandler.deleteSubmission())

			r.Get("/chat/sessions", handlers.chatHandler.getSessions())
			r.Get("/chat/sessions/{sessionID}", handlers.chatHandler.getSession())
			r.Delete("/chat/sessions/{sessionID}", handlers.chatHandler.deleteSession())

			r.Post("/receipts", handlers.receiptHandler.createReceipt())
			r.Get("/receipts", handlers.receiptHandler.getAllReceipts())
			r.Get("/receipts/{receiptID}", handlers.receiptHandler.getReceipt())
			r.Delete("/receipts/{receiptID}", handlers.receiptHandler.deleteReceipt())

			r.Get("/analytics/summary", handlers.analyticsHandler.getSummary())

			r.Get("/users", handlers.userHandler.getAllUsers())
			r.Post("/users", handlers.userHandler.createUser())
			r.Delete("/users/{userID}", handlers.userHandler.deleteUser())
		})
	})
}
