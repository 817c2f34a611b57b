package services

import (
	"testing"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/require"
	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Deck{},
		&models.Flashcard{},
		&models.Tag{},
		&models.FlashcardTag{},
		&models.Generation{},
		&models.GenerationErrorLog{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, subject string) *models.User {
	t.Helper()
	user := models.User{SubjectID: subject, Nickname: subject}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestDeck(t *testing.T, db *gorm.DB, userID uint, name string, isDefault bool) *models.Deck {
	t.Helper()
	publicID, err := gonanoid.New()
	require.NoError(t, err)
	deck := models.Deck{PublicID: publicID, Name: name, UserID: userID, IsDefault: isDefault}
	require.NoError(t, db.Create(&deck).Error)
	return &deck
}

func createTestFlashcard(t *testing.T, db *gorm.DB, deck *models.Deck, front, back, source string) *models.Flashcard {
	t.Helper()
	publicID, err := gonanoid.New()
	require.NoError(t, err)
	card := models.Flashcard{
		PublicID: publicID,
		Front:    front,
		Back:     back,
		Source:   source,
		DeckID:   deck.ID,
		UserID:   deck.UserID,
	}
	require.NoError(t, db.Create(&card).Error)
	return &card
}
