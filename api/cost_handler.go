package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// costHandler tracks what a project cost in materials and time.
type costHandler struct {
	responder   Responder
	logger      zerolog.Logger
	costRepo    *database.CostRepo
	projectRepo *database.ProjectRepo
}

func newCostHandler(db database.Database) costHandler {
	logger := log.With().Str("handlerName", "costHandler").Logger()

	return costHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		costRepo:    db.CostRepo(),
		projectRepo: db.ProjectRepo(),
	}
}

type materialRequest struct {
	Name        string     `json:"name" validate:"required,notblank,max=200"`
	Quantity    float64    `json:"quantity" validate:"gt=0"`
	UnitCost    float64    `json:"unit_cost" validate:"gte=0"`
	Vendor      string     `json:"vendor" validate:"max=200"`
	PurchasedAt *time.Time `json:"purchased_at"`
}

func (req materialRequest) apply(m *models.MaterialItem) {
	m.Name = strings.TrimSpace(req.Name)
	m.Quantity = req.Quantity
	m.UnitCost = req.UnitCost
	m.Vendor = strings.TrimSpace(req.Vendor)
	m.PurchasedAt = req.PurchasedAt
}

type timeEntryRequest struct {
	Date    time.Time `json:"date" validate:"required"`
	Minutes int       `json:"minutes" validate:"gt=0,lte=1440"`
	Note    string    `json:"note" validate:"max=1000"`
}

// projectMaterials is the material list with its running total.
type projectMaterials struct {
	Items []*models.MaterialItem `json:"items"`
	Total int                    `json:"total"`
	Cost  float64                `json:"cost"`
}

func (h costHandler) projectFromRequest(r *http.Request) (*models.Project, error) {
	projectID, err := uuidParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	exists, err := h.projectRepo.Exists(r.Context(), projectID)
	if err != nil {
		return nil, wrapDatabaseError("find", "project", err)
	}
	if !exists {
		return nil, errs.NewNotFound("project")
	}
	return &models.Project{ID: projectID}, nil
}

func (h costHandler) getSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projectFromRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		summary, err := h.costRepo.Summary(r.Context(), project.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("summarize", "project costs", err))
			return
		}
		h.responder.WriteJSON(w, summary)
	}
}

func (h costHandler) getMaterials() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projectFromRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		items, err := h.costRepo.FindMaterials(r.Context(), project.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "materials", err))
			return
		}

		response := projectMaterials{Items: items, Total: len(items)}
		if response.Items == nil {
			response.Items = []*models.MaterialItem{}
		}
		for _, item := range items {
			response.Cost += item.LineTotal()
		}
		h.responder.WriteJSON(w, response)
	}
}

func (h costHandler) createMaterial() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projectFromRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req materialRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		item := &models.MaterialItem{ProjectID: project.ID}
		req.apply(item)
		if err := h.costRepo.AddMaterials(r.Context(), item); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "material", err))
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, item)
	}
}

func (h costHandler) updateMaterial() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		materialID, err := uuidParam(r, "materialID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req materialRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		item, err := h.costRepo.FindMaterial(r.Context(), projectID, materialID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "material", err))
			return
		}
		req.apply(item)
		if err := h.costRepo.UpdateMaterial(r.Context(), item); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "material", err))
			return
		}
		h.responder.WriteJSON(w, item)
	}
}

func (h costHandler) deleteMaterial() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		materialID, err := uuidParam(r, "materialID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.costRepo.DeleteMaterial(r.Context(), projectID, materialID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "material", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}

func (h costHandler) getTimeEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projectFromRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entries, err := h.costRepo.FindTimeEntries(r.Context(), project.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "time entries", err))
			return
		}
		h.responder.WriteJSON(w, newList(entries))
	}
}

func (h costHandler) createTimeEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projectFromRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req timeEntryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry := &models.TimeEntry{
			ProjectID: project.ID,
			Date:      req.Date.UTC(),
			Minutes:   req.Minutes,
			Note:      strings.TrimSpace(req.Note),
		}
		if err := h.costRepo.AddTimeEntry(r.Context(), entry); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "time entry", err))
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, entry)
	}
}

func (h costHandler) deleteTimeEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		entryID, err := uuidParam(r, "entryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.costRepo.DeleteTimeEntry(r.Context(), projectID, entryID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "time entry", err))
			return
		}
		h.responder.WriteNoContent(w)
	}
}
