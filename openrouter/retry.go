package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	maxAttempts = 3
	baseBackoff = 1 * time.Second
	maxBackoff  = 8 * time.Second
)

// backoffDelay returns the wait before the next attempt: 1s doubling per
// attempt, capped at 8s.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << attempt
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

// isRetryable reports whether an upstream failure is worth another
// attempt. 400 and 401 indicate a permanent misconfiguration and are
// never retried.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode != http.StatusBadRequest &&
			apiErr.HTTPStatusCode != http.StatusUnauthorized
	}
	return true
}

// retry runs fn until it succeeds, the retryable predicate rejects the
// error, the context is done, or attempts are exhausted.
func retry(ctx context.Context, attempts int, retryable func(error) bool, fn func() error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-time.After(backoffDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
}
