package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tenxcards/tenxcards-api/models"
	"github.com/tenxcards/tenxcards-api/services"
)

// /api/decks/{deckID}/flashcards

func (h *APIHandler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deckID := r.PathValue("deckID")

	cards, tagsByCard, err := h.Flashcards.ListFlashcards(r.Context(), user.ID, deckID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	type flashcardResponse struct {
		models.Flashcard
		Tags []models.Tag `json:"tags"`
	}

	response := make([]flashcardResponse, 0, len(cards))
	for _, card := range cards {
		tags := tagsByCard[card.ID]
		if tags == nil {
			tags = []models.Tag{}
		}
		response = append(response, flashcardResponse{Flashcard: card, Tags: tags})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": response})
}

func (h *APIHandler) GetFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	card, err := h.Flashcards.GetFlashcard(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("flashcardID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (h *APIHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deckID := r.PathValue("deckID")

	var req struct {
		Front string `json:"front" validate:"required,min=1,max=200"`
		Back  string `json:"back" validate:"required,min=1,max=500"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	card, err := h.Flashcards.CreateFlashcard(r.Context(), user.ID, deckID, req.Front, req.Back)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (h *APIHandler) UpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Front *string `json:"front" validate:"omitempty,min=1,max=200"`
		Back  *string `json:"back" validate:"omitempty,min=1,max=500"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	card, err := h.Flashcards.UpdateFlashcard(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("flashcardID"), services.FlashcardUpdate{
		Front: req.Front,
		Back:  req.Back,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (h *APIHandler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.Flashcards.DeleteFlashcard(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("flashcardID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.Flashcards.AttachTag(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("flashcardID"), r.PathValue("tagID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.Flashcards.DetachTag(r.Context(), user.ID, r.PathValue("deckID"), r.PathValue("flashcardID"), r.PathValue("tagID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
