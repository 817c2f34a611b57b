package handlers

import (
	"net/http"
	"time"
)

type userProfileResponse struct {
	SubjectID string    `json:"subject_id"`
	Nickname  string    `json:"nickname"`
	DeckCount int64     `json:"deck_count"`
	CreatedAt time.Time `json:"created_at"`
}

// GetCurrentUser returns the authenticated user's profile. The user row
// is guaranteed to exist: the sync middleware creates it on first
// request.
func (h *APIHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	deckCount, err := h.Decks.CountDecks(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userProfileResponse{
		SubjectID: user.SubjectID,
		Nickname:  user.Nickname,
		DeckCount: deckCount,
		CreatedAt: user.CreatedAt,
	})
}
