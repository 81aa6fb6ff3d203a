package api

import (
	"time"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, router router, issuer tokenIssuer) *routeHandlers {
	c := router.config
	deps := router.deps
	maxUpload := int64(config.GetInt(c, "MAX_UPLOAD_MB", 15)) << 20

	return &routeHandlers{
		authHandler:      newAuthHandler(database.UserRepo(), issuer, config.GetBool(c, "COOKIE_SECURE", true)),
		projectHandler:   newProjectHandler(database, deps.Store, deps.Indexer),
		mediaHandler:     newMediaHandler(database, deps.Store, maxUpload),
		commentHandler:   newCommentHandler(database, config.GetBool(c, "COMMENTS_REQUIRE_APPROVAL", false)),
		contactHandler:   newContactHandler(database, deps.Notifier),
		chatHandler:      newChatHandler(database, deps.Chat),
		costHandler:      newCostHandler(database),
		receiptHandler:   newReceiptHandler(database, deps.Parser, deps.Store, maxUpload),
		analyticsHandler: newAnalyticsHandler(database, config.GetDuration(c, "ANALYTICS_DEDUPE_MINUTES", time.Minute, 30)),
		userHandler:      newUserHandler(database),
		healthHandler:    newHealthHandler(database, router.startupTime),
	}
}
