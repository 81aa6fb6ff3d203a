package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

var receiptMimeTypes = append([]string{"application/pdf"}, imageMimeTypes...)

type receiptHandler struct {
	responder      Responder
	logger         zerolog.Logger
	receiptRepo    *database.ReceiptRepo
	projectRepo    *database.ProjectRepo
	parser         *services.ReceiptParser
	store          services.ObjectStore
	maxUploadBytes int64
}

func newReceiptHandler(db database.Database, parser *services.ReceiptParser, store services.ObjectStore, maxUploadBytes int64) receiptHandler {
	logger := log.With().Str("handlerName", "receiptHandler").Logger()

	return receiptHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		receiptRepo:    db.ReceiptRepo(),
		projectRepo:    db.ProjectRepo(),
		parser:         parser,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// parseError maps parser failures onto HTTP statuses.
func parseError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnsupportedReceiptType):
		return errs.NewUnsupportedMediaTypeError(err.Error(), receiptMimeTypes)
	case errors.Is(err, services.ErrNoReceiptText):
		return errs.NewUnprocessableError("No text could be read from the receipt", err)
	case errors.Is(err, services.ErrLLMNotConfigured):
		return errs.NewServiceNotConfiguredError("receipt parsing")
	default:
		return errs.NewUpstreamError("receipt parsing", err)
	}
}

// readReceipt parses the multipart body and returns the "file" upload.
func (h receiptHandler) readReceipt(w http.ResponseWriter, r *http.Request) (upload, error) {
	if h.parser == nil {
		return upload{}, errs.NewServiceNotConfiguredError("receipt parsing")
	}
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		return upload{}, err
	}
	uploads, err := readUploads(r, "file", receiptMimeTypes)
	if err != nil {
		return upload{}, err
	}
	return uploads[0], nil
}

// parseReceipt is the public demo: it parses and returns the result without
// storing anything.
func (h receiptHandler) parseReceipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.readReceipt(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		parsed, err := h.parser.Parse(r.Context(), u.MimeType, u.Data)
		if err != nil {
			h.logger.Warn().Err(err).Str("mimeType", u.MimeType).Msg("receipt parse failed")
			h.responder.WriteError(w, parseError(err))
			return
		}
		parsed.RawText = ""
		h.responder.WriteJSON(w, parsed)
	}
}

// createReceipt uploads, parses and stores a receipt. With addMaterials=true
// and a projectId, every line item also becomes a material of that project.
func (h receiptHandler) createReceipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.readReceipt(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var projectID *uuid.UUID
		if raw := r.FormValue("projectId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("projectId", "must be a UUID"))
				return
			}
			exists, err := h.projectRepo.Exists(r.Context(), id)
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("find", "project", err))
				return
			}
			if !exists {
				h.responder.WriteError(w, errs.NewNotFound("project"))
				return
			}
			projectID = &id
		}
		addMaterials, _ := strconv.ParseBool(r.FormValue("addMaterials"))
		if addMaterials && projectID == nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("projectId"))
			return
		}

		parsed, err := h.parser.Parse(r.Context(), u.MimeType, u.Data)
		if err != nil {
			h.logger.Warn().Err(err).Str("mimeType", u.MimeType).Msg("receipt parse failed")
			h.responder.WriteError(w, parseError(err))
			return
		}

		receipt := &models.Receipt{
			ProjectID:   projectID,
			Vendor:      parsed.Vendor,
			PurchasedAt: parsed.PurchasedAt,
			Total:       parsed.Total,
			Currency:    parsed.Currency,
			ParseMethod: parsed.Method,
			RawText:     parsed.RawText,
		}
		for _, item := range parsed.Items {
			receipt.Items = append(receipt.Items, models.ReceiptItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total,
			})
		}

		if h.store != nil {
			key := services.ReceiptKey(u.Extension)
			url, err := h.store.Put(r.Context(), key, u.MimeType, u.Data)
			if err != nil {
				h.responder.WriteError(w, errs.NewUpstreamError("object storage", err))
				return
			}
			receipt.ObjectKey = key
			receipt.ImageURL = url
		}

		var materials []*models.MaterialItem
		if addMaterials {
			for _, item := range parsed.Items {
				materials = append(materials, &models.MaterialItem{
					ProjectID:   *projectID,
					Name:        item.Description,
					Quantity:    item.Quantity,
					UnitCost:    item.UnitPrice,
					Vendor:      parsed.Vendor,
					PurchasedAt: parsed.PurchasedAt,
				})
			}
		}

		if err := h.receiptRepo.Add(r.Context(), receipt, materials...); err != nil {
			if receipt.ObjectKey != "" {
				if delErr := h.store.Delete(context.WithoutCancel(r.Context()), receipt.ObjectKey); delErr != nil {
					h.logger.Error().Err(delErr).Str("key", receipt.ObjectKey).Msg("failed to remove orphaned receipt upload")
				}
			}
			h.responder.WriteError(w, wrapDatabaseError("create", "receipt", err))
			return
		}

		h.logger.Info().
			Str("receiptId", receipt.ID.String()).
			Str("method", receipt.ParseMethod).
			Int("items", len(receipt.Items)).
			Int("materials", len(materials)).
			Msg("receipt stored")
		h.responder.WriteJSONStatus(w, http.StatusCreated, receipt)
	}
}

func (h receiptHandler) getAllReceipts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var projectID *uuid.UUID
		if raw := r.URL.Query().Get("projectId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("projectId", "must be a UUID"))
				return
			}
			projectID = &id
		}

		receipts, err := h.receiptRepo.FindAll(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "receipts", err))
			return
		}
		h.responder.WriteJSON(w, newList(receipts))
	}
}

func (h receiptHandler) getReceipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiptID, err := uuidParam(r, "receiptID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		receipt, err := h.receiptRepo.FindByID(r.Context(), receiptID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "receipt", err))
			return
		}
		h.responder.WriteJSON(w, receipt)
	}
}

func (h receiptHandler) deleteReceipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiptID, err := uuidParam(r, "receiptID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		receipt, err := h.receiptRepo.FindByID(r.Context(), receiptID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "receipt", err))
			return
		}
		if err := h.receiptRepo.Delete(r.Context(), receipt.ID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "receipt", err))
			return
		}

		if h.store != nil && receipt.ObjectKey != "" {
			if err := h.store.Delete(r.Context(), receipt.ObjectKey); err != nil {
				h.logger.Warn().Err(err).Str("key", receipt.ObjectKey).Msg("failed to delete receipt object")
			}
		}
		h.responder.WriteNoContent(w)
	}
}
