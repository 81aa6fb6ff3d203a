package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const indexTimeout = 30 * time.Second

type projectHandler struct {
	responder        Responder
	logger           zerolog.Logger
	projectRepo      *database.ProjectRepo
	projectTagRepo   *database.ProjectTagRepo
	projectImageRepo *database.ProjectImageRepo
	store            services.ObjectStore
	indexer          projectIndexer
}

func newProjectHandler(db database.Database, store services.ObjectStore, indexer projectIndexer) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:        NewResponder(logger),
		logger:           logger,
		projectRepo:      db.ProjectRepo(),
		projectTagRepo:   db.ProjectTagRepo(),
		projectImageRepo: db.ProjectImageRepo(),
		store:            store,
		indexer:          indexer,
	}
}

// projectRequest is the body of create and update. Tags replace the stored
// set when present.
type projectRequest struct {
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Slug        string     `json:"slug" validate:"omitempty,max=200"`
	Summary     string     `json:"summary" validate:"max=500"`
	Description string     `json:"description"`
	Kind        string     `json:"kind" validate:"omitempty,oneof=hobby work"`
	Status      string     `json:"status" validate:"omitempty,oneof=planned active done"`
	Featured    bool       `json:"featured"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Tags        []string   `json:"tags" validate:"max=20,dive,required,max=40"`
}

func (req projectRequest) apply(p *models.Project) error {
	slug := req.Slug
	if slug == "" {
		slug = req.Title
	}
	p.Slug = services.Slugify(slug)
	if p.Slug == "" {
		return errs.NewInvalidFieldError("slug", "must contain at least one letter or digit")
	}

	p.Title = strings.TrimSpace(req.Title)
	p.Summary = req.Summary
	p.Description = req.Description
	p.Featured = req.Featured
	p.StartedAt = req.StartedAt
	p.CompletedAt = req.CompletedAt
	if req.Kind != "" {
		p.Kind = req.Kind
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	return nil
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// reindex refreshes the project's embedding in the background. Failures only
// degrade chat context.
func (h projectHandler) reindex(ctx context.Context, project *models.Project) {
	if h.indexer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	go func() {
		defer cancel()
		if err := h.indexer.Index(ctx, project); err != nil {
			h.logger.Warn().Err(err).Str("projectId", project.ID.String()).Msg("failed to index project")
		}
	}()
}

// findProject resolves the projectID URL parameter, which may be an ID or a slug.
func (h projectHandler) findProject(r *http.Request) (*models.Project, error) {
	ref := chi.URLParam(r, "projectID")
	if ref == "" {
		return nil, errs.NewMissingRequiredFieldError("projectID")
	}

	var (
		project *models.Project
		err     error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		project, err = h.projectRepo.FindByID(r.Context(), id)
	} else {
		project, err = h.projectRepo.FindBySlug(r.Context(), strings.ToLower(ref))
	}
	if err != nil {
		return nil, wrapDatabaseError("find", "project", err)
	}
	return project, nil
}

// getAllProjects lists projects in display order, optionally filtered by
// ?kind=hobby|work and ?featured=true|false.
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter database.ProjectFilter

		if kind := r.URL.Query().Get("kind"); kind != "" {
			if kind != models.ProjectKindHobby && kind != models.ProjectKindWork {
				h.responder.WriteError(w, errs.NewInvalidFieldError("kind", "must be one of: hobby work"))
				return
			}
			filter.Kind = kind
		}
		if featured := r.URL.Query().Get("featured"); featured != "" {
			value, err := strconv.ParseBool(featured)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("featured", "must be true or false"))
				return
			}
			filter.Featured = &value
		}

		projects, err := h.projectRepo.FindAll(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "projects", err))
			return
		}

		h.responder.WriteJSON(w, newList(projects))
	}
}

func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.findProject(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

func (h projectHandler) getAllTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.projectTagRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "tags", err))
			return
		}
		h.responder.WriteJSON(w, newList(tags))
	}
}

func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var project models.Project
		if err := req.apply(&project); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		sortOrder, err := h.projectRepo.NextSortOrder(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("order", "project", err))
			return
		}
		project.SortOrder = sortOrder

		if err := h.projectRepo.Add(r.Context(), &project); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "project", err))
			return
		}
		if err := h.projectTagRepo.Replace(r.Context(), project.ID, req.Tags); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "project tags", err))
			return
		}

		// Reload project to get tags
		created, err := h.projectRepo.FindByID(r.Context(), project.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find created", "project", err))
			return
		}

		h.logger.Info().Str("projectId", created.ID.String()).Str("slug", created.Slug).Msg("project created")
		h.reindex(r.Context(), created)
		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "project", err))
			return
		}
		if err := req.apply(project); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projectRepo.Update(r.Context(), project); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "project", err))
			return
		}
		if req.Tags != nil {
			if err := h.projectTagRepo.Replace(r.Context(), project.ID, req.Tags); err != nil {
				h.responder.WriteError(w, wrapDatabaseError("update", "project tags", err))
				return
			}
		}

		updated, err := h.projectRepo.FindByID(r.Context(), project.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find updated", "project", err))
			return
		}

		h.reindex(r.Context(), updated)
		h.responder.WriteJSON(w, updated)
	}
}

func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		images, err := h.projectImageRepo.FindByProject(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "project images", err))
			return
		}

		if err := h.projectRepo.Delete(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "project", err))
			return
		}

		if h.store != nil {
			for _, image := range images {
				if err := h.store.Delete(r.Context(), image.ObjectKey); err != nil {
					h.logger.Warn().Err(err).Str("key", image.ObjectKey).Msg("failed to delete image object")
				}
			}
		}

		h.logger.Info().Str("projectId", projectID.String()).Int("images", len(images)).Msg("project deleted")
		h.responder.WriteNoContent(w)
	}
}

func (h projectHandler) reorderProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projectRepo.Reorder(r.Context(), req.IDs); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.responder.WriteError(w, errs.NewInvalidFieldError("ids", "contains an unknown project"))
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("reorder", "projects", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
