package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const (
	chatSessionHeader = "X-Chat-Session"
	persistTimeout    = 10 * time.Second
)

type chatHandler struct {
	responder Responder
	logger    zerolog.Logger
	chatRepo  *database.ChatRepo
	chat      *services.ChatService
}

func newChatHandler(db database.Database, chat *services.ChatService) chatHandler {
	logger := log.With().Str("handlerName", "chatHandler").Logger()

	return chatHandler{
		responder: NewResponder(logger),
		logger:    logger,
		chatRepo:  db.ChatRepo(),
		chat:      chat,
	}
}

type chatRequest struct {
	Messages []services.ChatTurn `json:"messages" validate:"required,min=1,max=200"`
}

// resolveSession reuses the session named by the X-Chat-Session header when it
// belongs to this visitor and starts a new one otherwise. A failed lookup
// other than not-found is returned rather than splitting the transcript.
func (h chatHandler) resolveSession(r *http.Request) (*models.ChatSession, error) {
	visitorID := ctxGetVisitorID(r.Context())

	if raw := r.Header.Get(chatSessionHeader); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			session, err := h.chatRepo.FindSession(r.Context(), id)
			if err != nil {
				if dbErr := wrapDatabaseError("find", "chat session", err); !errs.IsNotFound(dbErr) {
					return nil, dbErr
				}
			} else if session.VisitorID == visitorID {
				return session, nil
			}
		}
	}

	session := &models.ChatSession{
		VisitorID: visitorID,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err := h.chatRepo.CreateSession(r.Context(), session); err != nil {
		return nil, wrapDatabaseError("create", "chat session", err)
	}
	return session, nil
}

// streamChat relays the assistant reply as plain-text chunks. The status is
// only committed with the first chunk, so a gateway failure before any output
// still gets a JSON 502.
func (h chatHandler) streamChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.chat == nil {
			h.responder.WriteError(w, errs.NewServiceNotConfiguredError("chat"))
			return
		}

		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		turns, err := h.chat.Prepare(r.Context(), req.Messages)
		if err != nil {
			if errors.Is(err, services.ErrInvalidConversation) {
				h.responder.WriteError(w, errs.NewInvalidFieldError("messages", err.Error()))
				return
			}
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not prepare conversation", err))
			return
		}

		session, err := h.resolveSession(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		flusher, _ := w.(http.Flusher)
		started := false
		reply, err := h.chat.Relay(r.Context(), turns, func(chunk string) error {
			if !started {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("X-Accel-Buffering", "no")
				w.Header().Set(chatSessionHeader, session.ID.String())
				w.WriteHeader(http.StatusOK)
				started = true
			}
			if _, err := w.Write([]byte(chunk)); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		})

		userTurn := req.Messages[len(req.Messages)-1]
		messages := []*models.ChatMessage{{Role: services.RoleUser, Content: userTurn.Content}}
		if reply != "" {
			messages = append(messages, &models.ChatMessage{Role: services.RoleAssistant, Content: reply})
		}
		h.persist(r.Context(), session.ID, messages)

		if err != nil {
			h.logger.Warn().Err(err).Str("sessionId", session.ID.String()).Bool("started", started).Msg("chat relay failed")
			if started {
				return
			}
			w.Header().Set(chatSessionHeader, session.ID.String())
			if errors.Is(err, services.ErrLLMNotConfigured) {
				h.responder.WriteError(w, errs.NewServiceNotConfiguredError("chat"))
				return
			}
			h.responder.WriteError(w, errs.NewUpstreamError("chat", err))
			return
		}

		if !started {
			// the gateway finished without sending any content
			w.Header().Set(chatSessionHeader, session.ID.String())
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// persist stores the exchange even when the visitor has already disconnected.
func (h chatHandler) persist(ctx context.Context, sessionID uuid.UUID, messages []*models.ChatMessage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := h.chatRepo.AppendMessages(ctx, sessionID, messages...); err != nil {
		h.logger.Error().Err(err).Str("sessionId", sessionID.String()).Msg("failed to persist chat messages")
	}
}

type chatSessionList struct {
	Items  []*models.ChatSession `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func (h chatHandler) getSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := 50, 0
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
			limit = v
		}
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			offset = v
		}

		sessions, total, err := h.chatRepo.ListSessions(r.Context(), limit, offset)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "chat sessions", err))
			return
		}
		if sessions == nil {
			sessions = []*models.ChatSession{}
		}
		h.responder.WriteJSON(w, chatSessionList{Items: sessions, Total: total, Limit: limit, Offset: offset})
	}
}

func (h chatHandler) getSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		session, err := h.chatRepo.FindSessionWithMessages(r.Context(), sessionID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "chat session", err))
			return
		}
		h.responder.WriteJSON(w, session)
	}
}

func (h chatHandler) deleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuidParam(r, "sessionID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.chatRepo.DeleteSession(r.Context(), sessionID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "chat session", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
