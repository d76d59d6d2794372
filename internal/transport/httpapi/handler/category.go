package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/core/category"
	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// CategoryHandler serves the category endpoints.
type CategoryHandler struct {
	registry *category.Registry
	logger   *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(registry *category.Registry, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		registry: registry,
		logger:   log.WithField("handler", "category"),
	}
}

// ListCategories handles GET /categories. Returns the system catalog
// plus the user's custom categories for a direction, expense by
// default.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	direction := ledger.Direction(r.URL.Query().Get("type"))
	if direction == "" {
		direction = ledger.DirectionExpense
	}
	if !direction.Valid() {
		respondError(w, apperrors.BadRequest("type must be income or expense"))
		return
	}

	respondData(w, http.StatusOK, h.registry.List(direction))
}

// GetCategory handles GET /categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var spec category.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if err := spec.Validate(); err != nil {
		respondError(w, err)
		return
	}

	c, err := h.registry.Add(r.Context(), spec)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /categories/{id}. System categories are
// read-only and answer not found, same as a missing ID.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var upd category.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	c, err := h.registry.UpdateCategory(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

// ListIcons handles GET /categories/icons, the picker for custom
// category creation.
func (h *CategoryHandler) ListIcons(w http.ResponseWriter, r *http.Request) {
	icons := category.AvailableIcons()

	type icon struct {
		Key   string `json:"key"`
		Glyph string `json:"glyph"`
	}
	out := make([]icon, 0, len(icons))
	for _, key := range icons {
		out = append(out, icon{Key: key, Glyph: category.IconGlyph(key)})
	}
	respondData(w, http.StatusOK, out)
}
