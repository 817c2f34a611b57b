package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenxcards/tenxcards-api/openrouter"
	"github.com/tenxcards/tenxcards-api/services"
)

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"DeckNotFound", services.ErrDeckNotFound, http.StatusNotFound, "not_found"},
		{"WrappedNotFound", fmt.Errorf("loading deck: %w", services.ErrDeckNotFound), http.StatusNotFound, "not_found"},
		{"DefaultDeckUndeletable", services.ErrCannotDeleteDefaultDeck, http.StatusBadRequest, "default_deck_undeletable"},
		{"DeckNameTaken", services.ErrDeckNameTaken, http.StatusConflict, "conflict"},
		{"GlobalTagImmutable", services.ErrGlobalTagImmutable, http.StatusForbidden, "forbidden"},
		{"SourceTextLength", services.ErrSourceTextLength, http.StatusBadRequest, "validation_error"},
		{"UnsupportedModel", openrouter.ErrUnsupportedModel, http.StatusBadRequest, "unsupported_model"},
		{"Timeout", openrouter.ErrTimeout, http.StatusServiceUnavailable, "ai_timeout"},
		{"InvalidResponse", &openrouter.InvalidResponseError{Reason: "malformed"}, http.StatusBadGateway, "ai_invalid_response"},
		{"UpstreamBadRequest", &openrouter.APIError{StatusCode: http.StatusBadRequest}, http.StatusBadRequest, "ai_bad_request"},
		{"UpstreamServerError", &openrouter.APIError{StatusCode: http.StatusInternalServerError}, http.StatusServiceUnavailable, "ai_unavailable"},
		{"UpstreamRateLimited", &openrouter.APIError{StatusCode: http.StatusTooManyRequests}, http.StatusServiceUnavailable, "ai_unavailable"},
		{"DefaultDeckMissing", services.ErrDefaultDeckMissing, http.StatusInternalServerError, "internal_error"},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			envelope := decodeErrorEnvelope(t, rec)
			assert.Equal(t, tc.wantCode, envelope.Error.Code)
			assert.NotEmpty(t, envelope.Error.Message)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteServiceErrorMasksUpstreamCredentials(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, &openrouter.APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       "invalid_api_key",
		Message:    "Incorrect API key provided: sk-or-v1-secret",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeErrorEnvelope(t, rec)
	assert.Equal(t, "internal_error", envelope.Error.Code)
	assert.NotContains(t, rec.Body.String(), "sk-or-v1-secret")
	assert.NotContains(t, rec.Body.String(), "api key")
}

func TestWriteServiceErrorRetryWrappedUpstream(t *testing.T) {
	// The AI client wraps the final upstream failure in its retry marker;
	// the mapping must still see the typed error underneath.
	upstream := &openrouter.APIError{StatusCode: http.StatusInternalServerError}
	wrapped := fmt.Errorf("%w: %w", openrouter.ErrMaxRetries, upstream)

	rec := httptest.NewRecorder()
	writeServiceError(rec, wrapped)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	envelope := decodeErrorEnvelope(t, rec)
	assert.Equal(t, "ai_unavailable", envelope.Error.Code)
}

func TestWriteGenerateError(t *testing.T) {
	t.Run("InvalidDeckIsBadRequest", func(t *testing.T) {
		// The generate endpoint takes the deck id in the request body,
		// so an unknown deck is a 400, unlike the deck CRUD routes.
		rec := httptest.NewRecorder()
		writeGenerateError(rec, fmt.Errorf("loading deck: %w", services.ErrDeckNotFound))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeErrorEnvelope(t, rec)
		assert.Equal(t, "invalid_deck", envelope.Error.Code)
	})

	t.Run("OtherErrorsUseSharedMapping", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeGenerateError(rec, openrouter.ErrTimeout)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		envelope := decodeErrorEnvelope(t, rec)
		assert.Equal(t, "ai_timeout", envelope.Error.Code)
	})

	t.Run("RateLimitedStillGetsHeaders", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeGenerateError(rec, &services.RateLimitError{Status: services.LimitStatus{
			ResetAt: time.Now().Add(time.Hour),
			Limit:   10,
		}})

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	})
}

func TestWriteRateLimited(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Minute)
	rec := httptest.NewRecorder()
	writeServiceError(rec, &services.RateLimitError{Status: services.LimitStatus{
		Allowed:      false,
		Remaining:    0,
		ResetAt:      resetAt,
		CurrentCount: 10,
		Limit:        10,
	}})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, fmt.Sprint(resetAt.Unix()), rec.Header().Get("X-RateLimit-Reset"))

	retryAfter := rec.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter)
	assert.NotEqual(t, "0", retryAfter)

	envelope := decodeErrorEnvelope(t, rec)
	assert.Equal(t, "rate_limited", envelope.Error.Code)
	details, ok := envelope.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 10, details["limit"])
	assert.EqualValues(t, 0, details["remaining"])
}
