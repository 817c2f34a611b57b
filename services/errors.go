// Package services contains the business workflows behind the HTTP
// handlers: deck lifecycle (including deletion with flashcard
// migration), AI generation orchestration, and the per-user generation
// rate limit.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Deck errors
	ErrDeckNotFound            = errors.New("deck not found")
	ErrDeckNameInvalid         = errors.New("deck name must be between 1 and 100 characters")
	ErrDeckNameTaken           = errors.New("deck name already exists")
	ErrDefaultDeckMissing      = errors.New("default deck missing")
	ErrCannotDeleteDefaultDeck = errors.New("cannot delete default deck")

	// Flashcard errors
	ErrFlashcardNotFound = errors.New("flashcard not found")

	// Tag errors
	ErrTagNotFound        = errors.New("tag not found")
	ErrTagNameTaken       = errors.New("tag name already exists in this deck")
	ErrGlobalTagImmutable = errors.New("global tags cannot be modified or deleted")

	// Generation errors
	ErrGenerationNotFound   = errors.New("generation not found")
	ErrSourceTextLength     = errors.New("source text must be between 1000 and 10000 characters")
	ErrNoFlashcardsToAccept = errors.New("no flashcards provided to accept")
)

// LimitStatus is a snapshot of a user's generation quota at check time.
type LimitStatus struct {
	Allowed      bool
	Remaining    int
	ResetAt      time.Time
	CurrentCount int
	Limit        int
}

// RateLimitError carries the full quota snapshot so the HTTP layer can
// emit Retry-After and X-RateLimit-* headers.
type RateLimitError struct {
	Status LimitStatus
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d of %d generations used, resets at %s",
		e.Status.CurrentCount, e.Status.Limit, e.Status.ResetAt.Format(time.RFC3339))
}
