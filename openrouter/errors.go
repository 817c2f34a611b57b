package openrouter

import (
	"errors"
	"fmt"
)

// Failure modes surfaced to callers. Handlers map each one to a specific
// HTTP status and user-facing message, so upstream detail never leaks.
var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrEmptySourceText  = errors.New("source text is empty")
	ErrTimeout          = errors.New("generation timed out")
	ErrMaxRetries       = errors.New("max retries exceeded")
)

// InvalidResponseError means the provider answered but the content did
// not match the expected flashcard schema. Raw carries the unparsed
// response for diagnostics.
type InvalidResponseError struct {
	Reason string
	Raw    string
}

func (e *InvalidResponseError) Error() string {
	return "invalid AI response: " + e.Reason
}

// APIError is an upstream provider failure with its HTTP status and
// provider error code attached.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter api error (status %d, code %q): %s", e.StatusCode, e.Code, e.Message)
}

// ErrorCode returns a short machine-readable code for audit logging.
func ErrorCode(err error) string {
	var invalidErr *InvalidResponseError
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnsupportedModel):
		return "unsupported_model"
	case errors.As(err, &invalidErr):
		return "invalid_response"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("api_error_%d", apiErr.StatusCode)
	default:
		return "unexpected"
	}
}
