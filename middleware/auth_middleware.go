package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/tenxcards/tenxcards-api/auth"
	"github.com/tenxcards/tenxcards-api/config"
)

// CustomClaims carries the extra token claims we care about.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken validates bearer tokens. With AUTH_DOMAIN set it
// checks RS256 signatures against the identity provider's JWKS; in
// development it falls back to the local HS256 secret used by the dev
// token endpoint.
func EnsureValidToken() func(next http.Handler) http.Handler {
	var jwtValidator *validator.Validator
	var err error

	if config.Env.AuthDomain != "" {
		issuerURL, parseErr := url.Parse("https://" + config.Env.AuthDomain + "/")
		if parseErr != nil {
			log.Fatalf("Failed to parse the issuer url: %v", parseErr)
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

		jwtValidator, err = validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{config.Env.AuthAudience},
			validator.WithCustomClaims(func() validator.CustomClaims {
				return &CustomClaims{}
			}),
			validator.WithAllowedClockSkew(time.Minute),
		)
	} else {
		jwtValidator, err = validator.New(
			func(ctx context.Context) (interface{}, error) {
				return auth.LocalSecret()
			},
			validator.HS256,
			auth.LocalIssuer,
			[]string{auth.LocalAudience},
			validator.WithCustomClaims(func() validator.CustomClaims {
				return &CustomClaims{}
			}),
			validator.WithAllowedClockSkew(time.Minute),
		)
	}
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Encountered error while validating JWT: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"unauthorized","message":"Failed to validate JWT."}}`))
	}

	jwtMiddleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(next http.Handler) http.Handler {
		return jwtMiddleware.CheckJWT(next)
	}
}
