package models

import "gorm.io/gorm"

// Deck represents a named collection of flashcards owned by a user.
// Exactly one deck per user carries IsDefault=true; it is provisioned on
// first sign-in and can never be deleted.
type Deck struct {
	gorm.Model
	PublicID    string `gorm:"size:100;uniqueIndex" json:"id"`
	Name        string `gorm:"not null;size:100" json:"name"`
	Description string `gorm:"size:5000" json:"description"`
	UserID      uint   `gorm:"not null;index" json:"-"`
	User        User   `gorm:"foreignKey:UserID" json:"-"`
	IsPublic    bool   `gorm:"default:false" json:"is_public"`
	IsDefault   bool   `gorm:"default:false" json:"is_default"`

	Flashcards []Flashcard `gorm:"foreignKey:DeckID" json:"-"`

	// Derived, populated by list queries
	FlashcardCount int64 `gorm:"-" json:"flashcard_count"`
}
