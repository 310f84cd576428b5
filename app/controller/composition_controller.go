package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/service"
)

// CompositionController handles the admin composition editor
type CompositionController struct {
	drafts service.CompositionDraftServiceInterface
	logger *logrus.Logger
}

// NewCompositionController creates a new CompositionController
func NewCompositionController(drafts service.CompositionDraftServiceInterface, logger *logrus.Logger) *CompositionController {
	return &CompositionController{
		drafts: drafts,
		logger: logger,
	}
}

// OpenDraft handles POST /admin/menu/drafts
// Request body: {"item_id": 12}, or {} for a new dish
func (c *CompositionController) OpenDraft(w http.ResponseWriter, r *http.Request) {
	var req models.OpenDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := c.drafts.Open(r.Context(), req.ItemID)
	if err != nil {
		c.logger.WithError(err).Warn("OpenDraft: failed to open draft")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// GetDraft handles GET /admin/menu/drafts/{id}
func (c *CompositionController) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := c.drafts.Get(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// AddIngredient handles POST /admin/menu/drafts/{id}/ingredients
// Request body: {"name": "Яйца", "quantity": 2, "unit": "шт"}
func (c *CompositionController) AddIngredient(w http.ResponseWriter, r *http.Request) {
	var req models.AddIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := c.drafts.AddIngredient(mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// RemoveIngredient handles DELETE /admin/menu/drafts/{id}/ingredients/{index}
func (c *CompositionController) RemoveIngredient(w http.ResponseWriter, r *http.Request) {
	index, err := pathInt(r, "index")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := c.drafts.RemoveIngredient(mux.Vars(r)["id"], int(index))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// SaveDraft handles POST /admin/menu/drafts/{id}/save
// Request body: {"name": "Сырники", "price": 650, "category": "breakfast"}
// Returns the saved menu item
func (c *CompositionController) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req models.SaveDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := mux.Vars(r)["id"]
	item, err := c.drafts.Save(r.Context(), id, req)
	if err != nil {
		c.logger.WithError(err).WithField("draft_id", id).Warn("SaveDraft: failed to save composition")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CancelDraft handles DELETE /admin/menu/drafts/{id}
func (c *CompositionController) CancelDraft(w http.ResponseWriter, r *http.Request) {
	if err := c.drafts.Cancel(mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
