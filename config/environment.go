package config

import (
	"os"
	"strconv"
	"time"
)

type Environment struct {
	IsDevelopment bool
	AuthDomain    string
	AuthAudience  string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string

	GenerationLimit  int
	GenerationWindow time.Duration
}

var Env Environment

func init() {
	// If no identity-provider domain is set, we're in development and
	// tokens are validated against the local HS256 secret instead.
	authDomain := os.Getenv("AUTH_DOMAIN")
	isDev := authDomain == ""

	limit := 10
	if val := os.Getenv("GENERATION_RATE_LIMIT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			limit = n
		}
	}

	window := time.Hour
	if val := os.Getenv("GENERATION_RATE_WINDOW_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			window = time.Duration(n) * time.Minute
		}
	}

	Env = Environment{
		IsDevelopment:     isDev,
		AuthDomain:        authDomain,
		AuthAudience:      os.Getenv("AUTH_AUDIENCE"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		GenerationLimit:   limit,
		GenerationWindow:  window,
	}
}
