package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

type commentHandler struct {
	responder       Responder
	logger          zerolog.Logger
	commentRepo     *database.CommentRepo
	projectRepo     *database.ProjectRepo
	requireApproval bool
}

func newCommentHandler(db database.Database, requireApproval bool) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder:       NewResponder(logger),
		logger:          logger,
		commentRepo:     db.CommentRepo(),
		projectRepo:     db.ProjectRepo(),
		requireApproval: requireApproval,
	}
}

type commentRequest struct {
	AuthorName  string `json:"author_name" validate:"required,notblank,max=80"`
	AuthorEmail string `json:"author_email" validate:"omitempty,email"`
	Body        string `json:"body" validate:"required,notblank,max=2000"`
}

// publicComment hides the author's email from visitors.
type publicComment struct {
	*models.Comment
	AuthorEmail string `json:"author_email,omitempty"`
}

func (h commentHandler) getProjectComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comments, err := h.commentRepo.FindByProject(r.Context(), projectID, h.requireApproval)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "comments", err))
			return
		}

		public := make([]publicComment, 0, len(comments))
		for _, c := range comments {
			public = append(public, publicComment{Comment: c})
		}
		h.responder.WriteJSON(w, newList(public))
	}
}

func (h commentHandler) createComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req commentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		exists, err := h.projectRepo.Exists(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "project", err))
			return
		}
		if !exists {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		comment := &models.Comment{
			ProjectID:   projectID,
			AuthorName:  strings.TrimSpace(req.AuthorName),
			AuthorEmail: req.AuthorEmail,
			Body:        strings.TrimSpace(req.Body),
			Approved:    !h.requireApproval,
		}
		if err := h.commentRepo.Add(r.Context(), comment); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "comment", err))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, publicComment{Comment: comment})
	}
}

// getAllComments is the moderation queue; ?pending=true lists unapproved ones only.
func (h commentHandler) getAllComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))

		comments, err := h.commentRepo.FindAll(r.Context(), pending)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "comments", err))
			return
		}
		h.responder.WriteJSON(w, newList(comments))
	}
}

func (h commentHandler) approveComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := uuidParam(r, "commentID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.commentRepo.Approve(r.Context(), commentID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("approve", "comment", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}

func (h commentHandler) deleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := uuidParam(r, "commentID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.commentRepo.Delete(r.Context(), commentID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "comment", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
