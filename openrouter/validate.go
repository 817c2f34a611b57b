package openrouter

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

const (
	minSuggestions = 3
	maxSuggestions = 20
	maxFrontLength = 200
	maxBackLength  = 500
)

type completionPayload struct {
	Flashcards []Suggestion `json:"flashcards"`
}

// parseSuggestions validates the raw completion content against the
// flashcard schema. Any violation carries the raw text for diagnostics.
func parseSuggestions(raw string) ([]Suggestion, error) {
	var payload completionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &InvalidResponseError{
			Reason: "malformed JSON: " + err.Error(),
			Raw:    raw,
		}
	}

	if len(payload.Flashcards) == 0 {
		return nil, &InvalidResponseError{
			Reason: "model produced no flashcards",
			Raw:    raw,
		}
	}
	if len(payload.Flashcards) < minSuggestions || len(payload.Flashcards) > maxSuggestions {
		return nil, &InvalidResponseError{
			Reason: fmt.Sprintf("expected between %d and %d flashcards, got %d", minSuggestions, maxSuggestions, len(payload.Flashcards)),
			Raw:    raw,
		}
	}

	for i, card := range payload.Flashcards {
		if n := utf8.RuneCountInString(card.Front); n == 0 || n > maxFrontLength {
			return nil, &InvalidResponseError{
				Reason: fmt.Sprintf("flashcard %d front must be 1-%d characters, got %d", i, maxFrontLength, n),
				Raw:    raw,
			}
		}
		if n := utf8.RuneCountInString(card.Back); n == 0 || n > maxBackLength {
			return nil, &InvalidResponseError{
				Reason: fmt.Sprintf("flashcard %d back must be 1-%d characters, got %d", i, maxBackLength, n),
				Raw:    raw,
			}
		}
	}

	return payload.Flashcards, nil
}
