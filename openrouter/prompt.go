package openrouter

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are an expert flashcard author. Given source text, produce concise question-and-answer flashcards that help a student learn the material.

Rules:
- Each card has a "front" (a question or prompt, at most 200 characters) and a "back" (the answer, at most 500 characters).
- Cards must be self-contained: the front must make sense without seeing the source text.
- Prefer one fact or concept per card. Do not invent facts that are not in the text.
- Produce between 3 and 20 cards depending on how much material the text contains.

Respond with JSON only, in exactly this shape:
{"flashcards":[{"front":"...","back":"..."}]}`

const userTemplate = `Create flashcards from the following text:

%s`

func buildMessages(sourceText string) ([]openai.ChatCompletionMessage, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, ErrEmptySourceText
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userTemplate, sourceText)},
	}, nil
}
