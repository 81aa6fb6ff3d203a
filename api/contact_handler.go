package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

type contactHandler struct {
	responder   Responder
	logger      zerolog.Logger
	contactRepo *database.ContactRepo
	notifier    services.ContactNotifier
}

func newContactHandler(db database.Database, notifier services.ContactNotifier) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		contactRepo: db.ContactRepo(),
		notifier:    notifier,
	}
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

type contactResponse struct {
	ID       uuid.UUID `json:"id"`
	Received bool      `json:"received"`
}

// submitContact stores the message and notifies the owner. Notification
// failures are logged and do not fail the request.
func (h contactHandler) submitContact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		submission := &models.ContactSubmission{
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.TrimSpace(req.Email),
			Subject: strings.TrimSpace(req.Subject),
			Message: strings.TrimSpace(req.Message),
			IP:      clientIP(r),
		}
		if err := h.contactRepo.Add(r.Context(), submission); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "contact submission", err))
			return
		}

		if h.notifier != nil {
			if err := h.notifier.NotifyContact(r.Context(), submission); err != nil {
				h.logger.Error().Err(err).Str("submissionId", submission.ID.String()).Msg("failed to notify about contact submission")
			}
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, contactResponse{ID: submission.ID, Received: true})
	}
}

func (h contactHandler) getAllSubmissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

		submissions, err := h.contactRepo.FindAll(r.Context(), unread)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "contact submissions", err))
			return
		}
		h.responder.WriteJSON(w, newList(submissions))
	}
}

func (h contactHandler) markRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID, err := uuidParam(r, "submissionID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.contactRepo.MarkRead(r.Context(), submissionID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "contact submission", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}

func (h contactHandler) deleteSubmission() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID, err := uuidParam(r, "submissionID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.contactRepo.Delete(r.Context(), submissionID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "contact submission", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
