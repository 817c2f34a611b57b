package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":      "gen-1",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "openai/gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func suggestionsContent(t *testing.T, suggestions []Suggestion) string {
	t.Helper()
	content, err := json.Marshal(map[string][]Suggestion{"flashcards": suggestions})
	require.NoError(t, err)
	return string(content)
}

func upstreamErrorBody(message string) []byte {
	return []byte(`{"error":{"message":"` + message + `","type":"server_error"}}`)
}

func threeSuggestions() []Suggestion {
	return []Suggestion{
		{Front: "What is ATP?", Back: "Adenosine triphosphate"},
		{Front: "What organelle produces ATP?", Back: "The mitochondrion"},
		{Front: "What is glycolysis?", Back: "The breakdown of glucose into pyruvate"},
	}
}

func TestGenerateFlashcards(t *testing.T) {
	ctx := context.Background()
	sourceText := "Cellular respiration converts glucose into usable energy."

	t.Run("UnsupportedModelNeverCallsUpstream", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		_, err := client.GenerateFlashcards(ctx, "openai/gpt-2", sourceText)
		assert.ErrorIs(t, err, ErrUnsupportedModel)
		assert.Zero(t, calls)
	})

	t.Run("EmptySourceText", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		_, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", "   ")
		assert.ErrorIs(t, err, ErrEmptySourceText)
		assert.Zero(t, calls)
	})

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "openai/gpt-4o-mini", req["model"])

			w.Header().Set("Content-Type", "application/json")
			w.Write(completionBody(t, suggestionsContent(t, threeSuggestions())))
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		suggestions, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", sourceText)
		require.NoError(t, err)
		require.Len(t, suggestions, 3)
		assert.Equal(t, "What is ATP?", suggestions[0].Front)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(upstreamErrorBody("upstream unavailable"))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(completionBody(t, suggestionsContent(t, threeSuggestions())))
		}))
		defer server.Close()

		start := time.Now()
		client := NewClient("test-key", server.URL+"/v1")
		suggestions, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", sourceText)
		require.NoError(t, err)
		assert.Len(t, suggestions, 3)
		assert.Equal(t, 3, calls)
		// 1s after the first failure, 2s after the second.
		assert.GreaterOrEqual(t, time.Since(start), 3*time.Second)
	})

	t.Run("ExhaustedRetries", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write(upstreamErrorBody("upstream unavailable"))
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		_, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", sourceText)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, maxAttempts, calls)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})

	t.Run("UnauthorizedIsNotRetried", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error","code":"invalid_api_key"}}`))
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		_, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", sourceText)
		assert.Equal(t, 1, calls)
		assert.NotErrorIs(t, err, ErrMaxRetries)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "invalid_api_key", apiErr.Code)
	})

	t.Run("MalformedCompletionContent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write(completionBody(t, "here are your flashcards: ..."))
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		_, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", sourceText)

		var invalid *InvalidResponseError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "malformed JSON")
		assert.Equal(t, "here are your flashcards: ...", invalid.Raw)
	})

	t.Run("EmptyFlashcardList", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write(completionBody(t, `{"flashcards":[]}`))
		}))
		defer server.Close()

		client := NewClient("test-key", server.URL+"/v1")
		_, err := client.GenerateFlashcards(ctx, "openai/gpt-4o-mini", sourceText)

		var invalid *InvalidResponseError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "no flashcards")
	})
}

func TestParseSuggestions(t *testing.T) {
	t.Run("TooFew", func(t *testing.T) {
		raw := suggestionsContent(t, threeSuggestions()[:2])
		_, err := parseSuggestions(raw)
		var invalid *InvalidResponseError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, raw, invalid.Raw)
	})

	t.Run("FrontTooLong", func(t *testing.T) {
		cards := threeSuggestions()
		long := make([]rune, maxFrontLength+1)
		for i := range long {
			long[i] = 'x'
		}
		cards[1].Front = string(long)
		_, err := parseSuggestions(suggestionsContent(t, cards))
		var invalid *InvalidResponseError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "front")
	})

	t.Run("EmptyBack", func(t *testing.T) {
		cards := threeSuggestions()
		cards[0].Back = ""
		_, err := parseSuggestions(suggestionsContent(t, cards))
		var invalid *InvalidResponseError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("Valid", func(t *testing.T) {
		got, err := parseSuggestions(suggestionsContent(t, threeSuggestions()))
		require.NoError(t, err)
		assert.Equal(t, threeSuggestions(), got)
	})
}

func TestSupportedModels(t *testing.T) {
	models := SupportedModels()
	require.NotEmpty(t, models)

	seen := make(map[string]bool)
	recommended := 0
	for _, model := range models {
		assert.False(t, seen[model.ID], "duplicate model %s", model.ID)
		seen[model.ID] = true
		assert.NotEmpty(t, model.DisplayName)
		assert.Positive(t, model.Timeout)
		if model.Recommended {
			recommended++
		}
	}
	assert.Positive(t, recommended, "at least one model should be recommended")

	for i := 1; i < len(models); i++ {
		assert.LessOrEqual(t, models[i-1].ID, models[i].ID, "models must be sorted by ID")
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "timeout", ErrorCode(ErrTimeout))
	assert.Equal(t, "unsupported_model", ErrorCode(ErrUnsupportedModel))
	assert.Equal(t, "invalid_response", ErrorCode(&InvalidResponseError{Reason: "bad"}))
	assert.Equal(t, "api_error_503", ErrorCode(&APIError{StatusCode: 503}))
}
