package models

import "gorm.io/gorm"

// User represents a user in the system, mirroring an identity-provider subject
type User struct {
	gorm.Model
	SubjectID string `gorm:"uniqueIndex;not null;size:255" json:"-"`
	Nickname  string `gorm:"size:100" json:"nickname"`
	Decks     []Deck `gorm:"foreignKey:UserID" json:"-"`
}
