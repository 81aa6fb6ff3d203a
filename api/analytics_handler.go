package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type analyticsHandler struct {
	responder     Responder
	logger        zerolog.Logger
	analyticsRepo *database.AnalyticsRepo
	dedupeWindow  time.Duration
	now           func() time.Time
}

func newAnalyticsHandler(db database.Database, dedupeWindow time.Duration) analyticsHandler {
	logger := log.With().Str("handlerName", "analyticsHandler").Logger()

	return analyticsHandler{
		responder:     NewResponder(logger),
		logger:        logger,
		analyticsRepo: db.AnalyticsRepo(),
		dedupeWindow:  dedupeWindow,
		now:           time.Now,
	}
}

type eventRequest struct {
	Type      string          `json:"type" validate:"required,oneof=page_view project_view link_click chat_open contact_open"`
	Path      string          `json:"path" validate:"required,max=500"`
	ProjectID *uuid.UUID      `json:"project_id"`
	Referrer  string          `json:"referrer" validate:"max=500"`
	Metadata  json.RawMessage `json:"metadata"`
}

type eventResponse struct {
	Recorded bool `json:"recorded"`
}

// recordEvent drops an event when the same visitor sent the same type and path
// within the dedupe window.
func (h analyticsHandler) recordEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		event := &models.AnalyticsEvent{
			Type:      req.Type,
			Path:      req.Path,
			ProjectID: req.ProjectID,
			VisitorID: ctxGetVisitorID(r.Context()),
			Referrer:  req.Referrer,
			UserAgent: r.UserAgent(),
		}
		if len(req.Metadata) > 0 && string(req.Metadata) != "null" {
			event.Metadata = datatypes.JSON(req.Metadata)
		}
		if event.VisitorID == "" {
			event.VisitorID = clientIP(r)
		}

		recorded, err := h.analyticsRepo.RecordUnlessDuplicate(r.Context(), event, h.dedupeWindow)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("record", "analytics event", err))
			return
		}
		h.responder.WriteJSON(w, eventResponse{Recorded: recorded})
	}
}

// getSummary aggregates the last ?days= days (default 30, at most 365).
func (h analyticsHandler) getSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 30
		if raw := r.URL.Query().Get("days"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1 || v > 365 {
				h.responder.WriteError(w, errs.NewInvalidFieldError("days", "must be between 1 and 365"))
				return
			}
			days = v
		}

		since := h.now().UTC().AddDate(0, 0, -days)
		summary, err := h.analyticsRepo.Summary(r.Context(), since, 10)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("summarize", "analytics", err))
			return
		}
		h.responder.WriteJSON(w, summary)
	}
}
