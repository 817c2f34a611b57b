package models

import "gorm.io/gorm"

// Flashcard provenance values. A manual card never carries a generation
// reference; an AI-derived card always does. Editing an ai-full card
// turns it into ai-edited, and that transition is one-way.
const (
	SourceManual   = "manual"
	SourceAIFull   = "ai-full"
	SourceAIEdited = "ai-edited"
)

// Flashcard represents an individual flashcard
type Flashcard struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex" json:"id"`
	Front    string `gorm:"not null;size:200" json:"front"`
	Back     string `gorm:"not null;size:500" json:"back"`
	Source   string `gorm:"not null;size:20;default:manual" json:"source"`

	DeckID uint `gorm:"not null;index" json:"-"`
	Deck   Deck `gorm:"foreignKey:DeckID" json:"-"`
	UserID uint `gorm:"not null;index" json:"-"`

	// Set iff Source is ai-full or ai-edited
	GenerationID *uint `gorm:"index" json:"-"`
}
