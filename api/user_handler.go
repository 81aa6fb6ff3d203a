package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
}

func newUserHandler(db database.Database) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		userRepo:  db.UserRepo(),
	}
}

type userRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

func (h userHandler) getAllUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.userRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "users", err))
			return
		}
		h.responder.WriteJSON(w, newList(users))
	}
}

func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := services.ValidatePassword(req.Password); err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("password", err.Error()))
			return
		}

		hash, err := services.HashPassword(req.Password)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not hash password", err))
			return
		}

		user := &models.User{
			Email:        req.Email,
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: hash,
			Role:         req.Role,
		}
		if err := h.userRepo.Add(r.Context(), user); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "user", err))
			return
		}

		h.logger.Info().Str("userId", user.ID.String()).Str("role", user.Role).Msg("user created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, user)
	}
}

func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidParam(r, "userID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if p := ctxGetPrincipal(r.Context()); p != nil && p.UserID == userID {
			h.responder.WriteError(w, errs.NewForbiddenError("you cannot delete your own account"))
			return
		}

		if err := h.userRepo.Delete(r.Context(), userID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "user", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
