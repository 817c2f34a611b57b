package config

import (
	"os"

	"github.com/tenxcards/tenxcards-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Database *gorm.DB

func Connect() error {
	var err error
	dbURL := os.Getenv("DB_URL")
	Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(
		&models.User{},
		&models.Deck{},
		&models.Flashcard{},
		&models.Tag{},
		&models.FlashcardTag{},
		&models.Generation{},
		&models.GenerationErrorLog{},
	)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
