package openrouter

import (
	"sort"
	"time"
)

// ModelInfo describes one allow-listed model. Calling with a model id
// outside this list fails before any HTTP request is made; the list is a
// cost and abuse control, not just input validation.
type ModelInfo struct {
	ID                   string        `json:"id"`
	DisplayName          string        `json:"display_name"`
	Provider             string        `json:"provider"`
	CostPerMillionTokens float64       `json:"cost_per_million_tokens"`
	Timeout              time.Duration `json:"-"`
	Recommended          bool          `json:"recommended"`
}

const defaultTimeout = 60 * time.Second

var supportedModels = map[string]ModelInfo{
	"openai/gpt-4o-mini": {
		ID:                   "openai/gpt-4o-mini",
		DisplayName:          "GPT-4o Mini",
		Provider:             "OpenAI",
		CostPerMillionTokens: 0.15,
		Timeout:              defaultTimeout,
		Recommended:          true,
	},
	"openai/gpt-4o": {
		ID:                   "openai/gpt-4o",
		DisplayName:          "GPT-4o",
		Provider:             "OpenAI",
		CostPerMillionTokens: 2.50,
		Timeout:              90 * time.Second,
	},
	"anthropic/claude-3.5-sonnet": {
		ID:                   "anthropic/claude-3.5-sonnet",
		DisplayName:          "Claude 3.5 Sonnet",
		Provider:             "Anthropic",
		CostPerMillionTokens: 3.00,
		Timeout:              90 * time.Second,
		Recommended:          true,
	},
	"google/gemini-flash-1.5": {
		ID:                   "google/gemini-flash-1.5",
		DisplayName:          "Gemini Flash 1.5",
		Provider:             "Google",
		CostPerMillionTokens: 0.075,
		Timeout:              defaultTimeout,
	},
	"meta-llama/llama-3.1-70b-instruct": {
		ID:                   "meta-llama/llama-3.1-70b-instruct",
		DisplayName:          "Llama 3.1 70B Instruct",
		Provider:             "Meta",
		CostPerMillionTokens: 0.40,
		Timeout:              defaultTimeout,
	},
}

// SupportedModels returns the allow-list sorted by id, for the UI's model
// picker.
func SupportedModels() []ModelInfo {
	infos := make([]ModelInfo, 0, len(supportedModels))
	for _, info := range supportedModels {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func lookupModel(id string) (ModelInfo, bool) {
	info, ok := supportedModels[id]
	return info, ok
}
