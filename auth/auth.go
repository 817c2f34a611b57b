// Package auth mints and verifies local HS256 tokens for development,
// when no hosted identity provider is configured.
package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalIssuer   = "tenxcards-dev"
	LocalAudience = "tenxcards-api"
)

// LocalSecret returns the HS256 signing key for development tokens.
func LocalSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set")
	}
	return []byte(secret), nil
}

// CreateToken mints a development token for the given subject.
func CreateToken(subject, nickname string) (string, error) {
	secretKey, err := LocalSecret()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":      subject,
			"nickname": nickname,
			"iss":      LocalIssuer,
			"aud":      LocalAudience,
			"iat":      time.Now().Unix(),
			"exp":      time.Now().Add(time.Hour * 24).Unix(),
		})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks a development token's signature and expiry.
func VerifyToken(tokenString string) error {
	secretKey, err := LocalSecret()
	if err != nil {
		return err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return err
	}

	if !token.Valid {
		return fmt.Errorf("invalid token")
	}

	return nil
}
