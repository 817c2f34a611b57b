package handlers

import (
	"encoding/json"
	"net/http"
)

// /api/decks/{deckID}/tags

func (h *APIHandler) ListDeckTags(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tags, err := h.Tags.ListDeckTags(r.Context(), user.ID, r.PathValue("deckID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

func (h *APIHandler) CreateDeckTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" validate:"required,min=1,max=50"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	tag, err := h.Tags.CreateDeckTag(r.Context(), user.ID, r.PathValue("deckID"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tag)
}

func (h *APIHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Tags.DeleteTag(r.Context(), user.ID, r.PathValue("tagID")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
