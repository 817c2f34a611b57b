package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tenxcards/tenxcards-api/openrouter"
	"github.com/tenxcards/tenxcards-api/services"
)

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// writeServiceError maps a typed service or AI-client failure to its
// HTTP status and machine-readable code. Upstream detail, in particular
// authentication failures, never reaches the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var rateErr *services.RateLimitError
	var invalidErr *openrouter.InvalidResponseError
	var apiErr *openrouter.APIError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &rateErr):
		writeRateLimited(w, rateErr.Status)

	case errors.Is(err, services.ErrDeckNotFound),
		errors.Is(err, services.ErrFlashcardNotFound),
		errors.Is(err, services.ErrTagNotFound),
		errors.Is(err, services.ErrGenerationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)

	case errors.Is(err, services.ErrCannotDeleteDefaultDeck):
		writeError(w, http.StatusBadRequest, "default_deck_undeletable",
			"The default deck is permanent and cannot be deleted.", nil)

	case errors.Is(err, services.ErrDeckNameTaken),
		errors.Is(err, services.ErrTagNameTaken):
		writeError(w, http.StatusConflict, "conflict", err.Error(), nil)

	case errors.Is(err, services.ErrGlobalTagImmutable):
		writeError(w, http.StatusForbidden, "forbidden", err.Error(), nil)

	case errors.Is(err, services.ErrSourceTextLength),
		errors.Is(err, services.ErrDeckNameInvalid),
		errors.Is(err, services.ErrNoFlashcardsToAccept),
		errors.Is(err, openrouter.ErrEmptySourceText):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)

	case errors.As(err, &validationErrs):
		details := make(map[string]string, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		writeError(w, http.StatusBadRequest, "validation_error", "Request validation failed.", details)

	case errors.Is(err, openrouter.ErrUnsupportedModel):
		writeError(w, http.StatusBadRequest, "unsupported_model",
			"The requested model is not available.", nil)

	case errors.Is(err, openrouter.ErrTimeout):
		writeError(w, http.StatusServiceUnavailable, "ai_timeout",
			"The AI service took too long to respond. Try again with shorter text.", nil)

	case errors.As(err, &invalidErr):
		writeError(w, http.StatusBadGateway, "ai_invalid_response",
			"The AI service returned an unusable response. Please try again.", nil)

	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusBadRequest:
			writeError(w, http.StatusBadRequest, "ai_bad_request",
				"The AI service rejected the request.", nil)
		case apiErr.StatusCode == http.StatusUnauthorized:
			// Upstream credential problems are our problem, not the client's.
			writeError(w, http.StatusInternalServerError, "internal_error",
				"Internal server error.", nil)
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
			writeError(w, http.StatusServiceUnavailable, "ai_unavailable",
				"The AI service is busy. Please try again in a moment.", nil)
		default:
			writeError(w, http.StatusBadGateway, "ai_error",
				"The AI service returned an unexpected error.", nil)
		}

	case errors.Is(err, services.ErrDefaultDeckMissing):
		writeError(w, http.StatusInternalServerError, "internal_error",
			"Account is missing its default deck.", nil)

	default:
		writeError(w, http.StatusInternalServerError, "internal_error",
			"Internal server error.", nil)
	}
}

func writeRateLimited(w http.ResponseWriter, status services.LimitStatus) {
	retryAfter := int(time.Until(status.ResetAt).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(status.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetAt.Unix(), 10))
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	writeError(w, http.StatusTooManyRequests, "rate_limited",
		"Generation limit reached. Please try again later.", map[string]interface{}{
			"limit":     status.Limit,
			"remaining": status.Remaining,
			"reset_at":  status.ResetAt,
		})
}
