package models

import (
	"time"

	"gorm.io/gorm"
)

// Generation records one invocation of the AI flashcard pipeline. It is
// metadata only: the suggested cards are not persisted until the user
// accepts them, at which point the accepted counters are updated once.
type Generation struct {
	gorm.Model
	PublicID  string `gorm:"size:100;uniqueIndex" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"-"`
	DeckID    uint   `gorm:"not null;index" json:"-"`
	Deck      Deck   `gorm:"foreignKey:DeckID" json:"-"`
	ModelName string `gorm:"column:model;not null;size:100" json:"model"`

	GeneratedCount        int `gorm:"not null;default:0" json:"generated_count"`
	AcceptedUneditedCount int `gorm:"not null;default:0" json:"accepted_unedited_count"`
	AcceptedEditedCount   int `gorm:"not null;default:0" json:"accepted_edited_count"`

	SourceTextHash   string `gorm:"not null;size:64;index" json:"-"`
	SourceTextLength int    `gorm:"not null" json:"source_text_length"`
	DurationMs       int64  `gorm:"not null;default:0" json:"generation_duration_ms"`
}

// GenerationErrorLog is a write-only audit row for failed AI calls. It is
// never updated or read back by the application.
type GenerationErrorLog struct {
	ID               uint      `gorm:"primarykey" json:"-"`
	UserID           uint      `gorm:"not null;index" json:"-"`
	ModelName        string    `gorm:"column:model;size:100" json:"model"`
	SourceTextHash   string    `gorm:"size:64" json:"-"`
	SourceTextLength int       `json:"source_text_length"`
	ErrorCode        string    `gorm:"size:50" json:"error_code"`
	ErrorMessage     string    `gorm:"size:1000" json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}
