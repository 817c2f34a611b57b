package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag scopes. Global tags are system-owned and cannot be mutated or
// deleted by users; deck tags belong to a single deck and owner.
const (
	TagScopeGlobal = "global"
	TagScopeDeck   = "deck"
)

// Tag represents a label attachable to flashcards. Deck-scoped tag names
// are unique within their deck (enforced in the service layer because
// soft-deleted rows share the table).
type Tag struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex" json:"id"`
	Name     string `gorm:"not null;size:50" json:"name"`
	Scope    string `gorm:"not null;size:10;default:deck" json:"scope"`
	DeckID   *uint  `gorm:"index" json:"-"`
	UserID   *uint  `gorm:"index" json:"-"`

	// Derived, populated by list queries
	FlashcardCount int64 `gorm:"-" json:"flashcard_count"`
}

// FlashcardTag associates a tag with a flashcard. The pair is unique;
// association writes use ON CONFLICT DO NOTHING so re-tagging is a no-op.
type FlashcardTag struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	FlashcardID uint      `gorm:"not null;uniqueIndex:idx_flashcard_tag" json:"-"`
	TagID       uint      `gorm:"not null;uniqueIndex:idx_flashcard_tag" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
