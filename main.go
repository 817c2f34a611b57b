package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/tenxcards/tenxcards-api/config"
	"github.com/tenxcards/tenxcards-api/handlers"
	"github.com/tenxcards/tenxcards-api/logger"
	"github.com/tenxcards/tenxcards-api/middleware"
	"github.com/tenxcards/tenxcards-api/openrouter"
	"github.com/tenxcards/tenxcards-api/services"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	logger.Init()

	// Initialize database connection
	config.Connect()
	authMiddleware := middleware.EnsureValidToken()

	aiClient := openrouter.NewClient(config.Env.OpenRouterAPIKey, config.Env.OpenRouterBaseURL)
	limiter := services.NewRateLimiter(config.Database, config.Env.GenerationLimit, config.Env.GenerationWindow)
	api := handlers.NewAPIHandler(config.Database, aiClient, limiter)

	mux := http.NewServeMux()

	// Users
	mux.HandleFunc("GET /api/users/me", middleware.SyncUserMiddleware(api.GetCurrentUser))

	// Decks
	mux.HandleFunc("GET /api/decks", middleware.SyncUserMiddleware(api.ListDecks))
	mux.HandleFunc("POST /api/decks", middleware.SyncUserMiddleware(api.CreateDeck))
	mux.HandleFunc("GET /api/decks/{deckID}", middleware.SyncUserMiddleware(api.GetDeck))
	mux.HandleFunc("PUT /api/decks/{deckID}", middleware.SyncUserMiddleware(api.UpdateDeck))
	mux.HandleFunc("DELETE /api/decks/{deckID}", middleware.SyncUserMiddleware(api.DeleteDeck))

	// Flashcards
	mux.HandleFunc("GET /api/decks/{deckID}/flashcards", middleware.SyncUserMiddleware(api.ListFlashcards))
	mux.HandleFunc("POST /api/decks/{deckID}/flashcards", middleware.SyncUserMiddleware(api.CreateFlashcard))
	mux.HandleFunc("GET /api/decks/{deckID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(api.GetFlashcard))
	mux.HandleFunc("PUT /api/decks/{deckID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(api.UpdateFlashcard))
	mux.HandleFunc("DELETE /api/decks/{deckID}/flashcards/{flashcardID}", middleware.SyncUserMiddleware(api.DeleteFlashcard))
	mux.HandleFunc("POST /api/decks/{deckID}/flashcards/{flashcardID}/tags/{tagID}", middleware.SyncUserMiddleware(api.AttachTag))
	mux.HandleFunc("DELETE /api/decks/{deckID}/flashcards/{flashcardID}/tags/{tagID}", middleware.SyncUserMiddleware(api.DetachTag))

	// Tags
	mux.HandleFunc("GET /api/decks/{deckID}/tags", middleware.SyncUserMiddleware(api.ListDeckTags))
	mux.HandleFunc("POST /api/decks/{deckID}/tags", middleware.SyncUserMiddleware(api.CreateDeckTag))
	mux.HandleFunc("DELETE /api/tags/{tagID}", middleware.SyncUserMiddleware(api.DeleteTag))

	// AI generation
	mux.HandleFunc("GET /api/generations/models", middleware.SyncUserMiddleware(api.ListModels))
	mux.HandleFunc("POST /api/generations/generate", middleware.SyncUserMiddleware(api.GenerateFlashcards))
	mux.HandleFunc("POST /api/generations/{generationID}/accept", middleware.SyncUserMiddleware(api.AcceptFlashcards))

	var handler http.Handler = mux

	// Development token endpoint bypasses JWT validation, so it sits
	// outside the auth middleware.
	if config.Env.IsDevelopment {
		root := http.NewServeMux()
		root.HandleFunc("POST /api/auth/dev-token", handlers.CreateDevToken)
		root.Handle("/", authMiddleware(mux))
		handler = root
	} else {
		handler = authMiddleware(mux)
	}

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://10xcards.app", "https://www.10xcards.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	log.Printf("Server starting on %s", serverAddr)
	http.ListenAndServe(serverAddr, corsHandler)
}
