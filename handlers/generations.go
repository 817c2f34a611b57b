package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tenxcards/tenxcards-api/openrouter"
	"github.com/tenxcards/tenxcards-api/services"
)

// /api/generations

// ListModels returns the allow-listed models for the UI's picker.
func (h *APIHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": openrouter.SupportedModels()})
}

// GenerateFlashcards runs the AI generation pipeline. Suggestions in the
// response are not yet flashcards; the client submits the kept ones to
// the accept endpoint.
func (h *APIHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		SourceText string `json:"source_text" validate:"required,min=1000,max=10000"`
		Model      string `json:"model" validate:"required"`
		DeckID     string `json:"deck_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.Generations.Generate(r.Context(), user.ID, req.DeckID, req.Model, req.SourceText)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID,
			"model":   req.Model,
		}).Warn("generation failed")
		writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// writeGenerateError maps generation-pipeline failures. The deck id is
// part of the request body here, so an unknown or unowned deck is a
// validation problem (400), not a missing resource (404) like on the
// deck CRUD routes.
func writeGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrDeckNotFound) {
		writeError(w, http.StatusBadRequest, "invalid_deck",
			"The target deck does not exist.", nil)
		return
	}
	writeServiceError(w, err)
}

// AcceptFlashcards persists the suggestions the user kept.
func (h *APIHandler) AcceptFlashcards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	generationID := r.PathValue("generationID")

	var req struct {
		Flashcards []struct {
			Front  string `json:"front" validate:"required,min=1,max=200"`
			Back   string `json:"back" validate:"required,min=1,max=500"`
			Edited bool   `json:"edited"`
		} `json:"flashcards" validate:"required,min=1,max=20,dive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	accepted := make([]services.AcceptedFlashcard, 0, len(req.Flashcards))
	for _, card := range req.Flashcards {
		accepted = append(accepted, services.AcceptedFlashcard{
			Front:  card.Front,
			Back:   card.Back,
			Edited: card.Edited,
		})
	}

	result, err := h.Generations.Accept(r.Context(), user.ID, generationID, accepted)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
