package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

var imageMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// mediaHandler manages a project's images and external links.
type mediaHandler struct {
	responder        Responder
	logger           zerolog.Logger
	projectRepo      *database.ProjectRepo
	projectImageRepo *database.ProjectImageRepo
	projectLinkRepo  *database.ProjectLinkRepo
	store            services.ObjectStore
	maxUploadBytes   int64
}

func newMediaHandler(db database.Database, store services.ObjectStore, maxUploadBytes int64) mediaHandler {
	logger := log.With().Str("handlerName", "mediaHandler").Logger()

	return mediaHandler{
		responder:        NewResponder(logger),
		logger:           logger,
		projectRepo:      db.ProjectRepo(),
		projectImageRepo: db.ProjectImageRepo(),
		projectLinkRepo:  db.ProjectLinkRepo(),
		store:            store,
		maxUploadBytes:   maxUploadBytes,
	}
}

func (h mediaHandler) requireProject(r *http.Request) error {
	projectID, err := uuidParam(r, "projectID")
	if err != nil {
		return err
	}
	exists, err := h.projectRepo.Exists(r.Context(), projectID)
	if err != nil {
		return wrapDatabaseError("find", "project", err)
	}
	if !exists {
		return errs.NewNotFound("project")
	}
	return nil
}

// uploadImages stores every file of the multipart field "files". The first
// image of a project without a cover becomes its cover.
func (h mediaHandler) uploadImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			h.responder.WriteError(w, errs.NewServiceNotConfiguredError("object storage"))
			return
		}
		if err := h.requireProject(r); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		projectID, _ := uuidParam(r, "projectID")

		if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		uploads, err := readUploads(r, "files", imageMimeTypes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		caption := r.FormValue("caption")

		sortOrder, err := h.projectImageRepo.NextSortOrder(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("order", "project images", err))
			return
		}

		images := make([]*models.ProjectImage, 0, len(uploads))
		for i, u := range uploads {
			key := services.ProjectImageKey(projectID, u.Extension)
			url, err := h.store.Put(r.Context(), key, u.MimeType, u.Data)
			if err != nil {
				h.responder.WriteError(w, errs.NewUpstreamError("object storage", err))
				return
			}

			image := &models.ProjectImage{
				ProjectID: projectID,
				URL:       url,
				ObjectKey: key,
				Caption:   caption,
				SortOrder: sortOrder + i,
			}
			if err := h.projectImageRepo.Add(r.Context(), image); err != nil {
				h.responder.WriteError(w, wrapDatabaseError("create", "project image", err))
				return
			}
			images = append(images, image)
		}

		if err := h.projectRepo.SetCoverImage(r.Context(), projectID, images[0].URL); err != nil {
			h.logger.Warn().Err(err).Str("projectId", projectID.String()).Msg("failed to set cover image")
		}

		h.logger.Info().Str("projectId", projectID.String()).Int("count", len(images)).Msg("images uploaded")
		h.responder.WriteJSONStatus(w, http.StatusCreated, newList(images))
	}
}

func (h mediaHandler) deleteImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		image, err := h.projectImageRepo.FindByID(r.Context(), projectID, imageID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "project image", err))
			return
		}
		if err := h.projectImageRepo.Delete(r.Context(), image.ID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "project image", err))
			return
		}

		if h.store != nil {
			if err := h.store.Delete(r.Context(), image.ObjectKey); err != nil {
				h.logger.Warn().Err(err).Str("key", image.ObjectKey).Msg("failed to delete image object")
			}
		}
		h.responder.WriteNoContent(w)
	}
}

func (h mediaHandler) reorderImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projectImageRepo.Reorder(r.Context(), projectID, req.IDs); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.responder.WriteError(w, errs.NewInvalidFieldError("ids", "contains an image of another project"))
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("reorder", "project images", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}

type linkRequest struct {
	Label string `json:"label" validate:"required,notblank,max=100"`
	URL   string `json:"url" validate:"required,http_url"`
	Kind  string `json:"kind" validate:"omitempty,oneof=github demo article video other"`
}

func (h mediaHandler) createLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.requireProject(r); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		projectID, _ := uuidParam(r, "projectID")

		var req linkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		link := &models.ProjectLink{ProjectID: projectID, Label: req.Label, URL: req.URL, Kind: req.Kind}
		if err := h.projectLinkRepo.Add(r.Context(), link); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "project link", err))
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, link)
	}
}

func (h mediaHandler) deleteLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		linkID, err := uuidParam(r, "linkID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projectLinkRepo.Delete(r.Context(), projectID, linkID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "project link", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
