package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/tenxcards/tenxcards-api/middleware"
	"github.com/tenxcards/tenxcards-api/models"
	"github.com/tenxcards/tenxcards-api/services"
	"gorm.io/gorm"
)

var validate = validator.New()

// APIHandler bundles the services behind the route handlers.
type APIHandler struct {
	DB          *gorm.DB
	Decks       *services.DeckService
	Flashcards  *services.FlashcardService
	Tags        *services.TagService
	Generations *services.GenerationService
}

func NewAPIHandler(db *gorm.DB, ai services.AIClient, limiter *services.RateLimiter) *APIHandler {
	return &APIHandler{
		DB:          db,
		Decks:       services.NewDeckService(db),
		Flashcards:  services.NewFlashcardService(db),
		Tags:        services.NewTagService(db),
		Generations: services.NewGenerationService(db, ai, limiter),
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required.", nil)
		return nil, false
	}
	return user, true
}
