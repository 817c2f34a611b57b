package openrouter

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Suggestion is one AI-produced front/back pair. It is not a flashcard
// yet: nothing is persisted until the user accepts it.
type Suggestion struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Client turns raw source text into validated flashcard suggestions via
// the OpenRouter chat-completion API.
type Client struct {
	api *openai.Client
}

func NewClient(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cfg.BaseURL = baseURL
	return &Client{api: openai.NewClientWithConfig(cfg)}
}

// GenerateFlashcards calls the allow-listed model with the fixed prompt
// and returns the validated suggestions. Failed attempts are retried
// with exponential backoff unless the upstream status marks them
// permanent; the whole call is bounded by the model's timeout.
func (c *Client) GenerateFlashcards(ctx context.Context, modelID, sourceText string) ([]Suggestion, error) {
	info, ok := lookupModel(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelID)
	}

	messages, err := buildMessages(sourceText)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, info.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:            modelID,
		Messages:         messages,
		Temperature:      0.7,
		TopP:             0.9,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var resp openai.ChatCompletionResponse
	err = retry(ctx, maxAttempts, isRetryable, func() error {
		result, callErr := c.api.CreateChatCompletion(ctx, req)
		if callErr != nil {
			logrus.WithFields(logrus.Fields{"model": modelID}).WithError(callErr).Warn("chat completion attempt failed")
			return callErr
		}
		resp = result
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &InvalidResponseError{Reason: "response contained no choices"}
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

// classify maps transport-level failures onto the package's typed error
// set so callers never inspect provider error shapes themselves.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		typed := &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Code:       code,
			Message:    apiErr.Message,
		}
		if errors.Is(err, ErrMaxRetries) {
			return fmt.Errorf("%w: %w", ErrMaxRetries, typed)
		}
		return typed
	}
	return err
}
