package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tenxcards/tenxcards-api/auth"
)

// CreateDevToken mints a local HS256 token. Registered only in
// development, where no hosted identity provider is configured.
func CreateDevToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject  string `json:"subject" validate:"required"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body.", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := auth.CreateToken(req.Subject, req.Nickname)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Could not create token.", nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}
