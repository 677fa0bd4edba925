package resource

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daem-platform/daem-backend/internal/middleware"
	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

// Handler serves the resource catalog: readable by everyone, writable by
// admins.
type Handler struct {
	resources store.ResourceStore
}

// New creates the resource handler.
func New(resources store.ResourceStore) *Handler {
	return &Handler{resources: resources}
}

// RegisterRoutes mounts the catalog endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	adminOnly := middleware.RequireRole(therapy.RoleAdmin)
	r.Get("/resources", h.handleList)
	r.Get("/resources/{resourceID}", h.handleGet)
	r.With(adminOnly).Post("/resources", h.handleCreate)
	r.With(adminOnly).Put("/resources/{resourceID}", h.handleUpdate)
	r.With(adminOnly).Delete("/resources/{resourceID}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.ListResources(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not load resources")
		return
	}
	utils.RespondJSON(w, http.StatusOK, resources)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.resources.GetResource(r.Context(), chi.URLParam(r, "resourceID"))
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "resource lookup failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.resources.SaveResource(r.Context(), &res); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not save resource")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	existing, err := h.resources.GetResource(r.Context(), chi.URLParam(r, "resourceID"))
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "resource lookup failed")
		return
	}

	res, ok := h.decode(w, r)
	if !ok {
		return
	}
	res.ID = existing.ID
	res.CreatedAt = existing.CreatedAt

	if err := h.resources.SaveResource(r.Context(), &res); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not save resource")
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.resources.DeleteResource(r.Context(), chi.URLParam(r, "resourceID"))
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "could not delete resource")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (therapy.Resource, bool) {
	var res therapy.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return therapy.Resource{}, false
	}
	if res.Title == "" || res.Link == "" {
		utils.RespondError(w, http.StatusBadRequest, "title and link are required")
		return therapy.Resource{}, false
	}
	if res.Language == "" {
		res.Language = "ar"
	}
	return res, true
}
