package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tenxcards/tenxcards-api/services"
)

// /api/decks

func (h *APIHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	decks, err := h.Decks.ListDecks(r.Context(), user.ID)
	if err != nil {
		logrus.WithError(err).Error("ListDecks failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

func (h *APIHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deckID := r.PathValue("deckID")

	deck, err := h.Decks.GetDeck(r.Context(), user.ID, deckID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deck)
}

func (h *APIHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" validate:"required,min=1,max=100"`
		Description string `json:"description" validate:"max=5000"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	deck, err := h.Decks.CreateDeck(r.Context(), user.ID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{"deck": deck.PublicID, "user_id": user.ID}).Info("deck created")
	writeJSON(w, http.StatusCreated, deck)
}

func (h *APIHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deckID := r.PathValue("deckID")

	var req struct {
		Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
		Description *string `json:"description" validate:"omitempty,max=5000"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	deck, err := h.Decks.UpdateDeck(r.Context(), user.ID, deckID, services.DeckUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deck)
}

// DeleteDeck runs the migration workflow: flashcards move to the default
// deck under a migration tag before the source deck is soft-deleted.
func (h *APIHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deckID := r.PathValue("deckID")

	result, err := h.Decks.DeleteDeck(r.Context(), user.ID, deckID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Deck deleted. %d flashcards were moved to your default deck.",
			result.MigratedFlashcardsCount),
		"migrated_flashcards_count": result.MigratedFlashcardsCount,
		"migration_tag": map[string]string{
			"id":   result.MigrationTagID,
			"name": result.MigrationTagName,
		},
	})
}
