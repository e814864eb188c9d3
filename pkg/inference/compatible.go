package inference

import (
	"cmp"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Preset describes an OpenAI-compatible host.
type Preset struct {
	Name         string
	BaseURL      string
	DefaultModel string
}

var Presets = map[string]Preset{
	"grok":     {Name: "grok", BaseURL: "https://api.x.ai/v1", DefaultModel: "grok-4-fast-non-reasoning"},
	"kimi":     {Name: "kimi", BaseURL: "https://api.kimi.com/coding/v1", DefaultModel: "kimi-for-coding"},
	"moonshot": {Name: "moonshot", BaseURL: "https://api.moonshot.ai/v1", DefaultModel: "kimi-k2-5"},
}

// NewCompatibleInferencer creates an inferencer for an OpenAI-compatible API.
func NewCompatibleInferencer(preset Preset, apiKey string, model string) *OpenAIInferencer {
	client := openai.NewClient(
		option.WithBaseURL(preset.BaseURL),
		option.WithAPIKey(apiKey),
	)
	return &OpenAIInferencer{
		client: &client,
		name:   preset.Name,
		apiKey: apiKey,
		model:  cmp.Or(model, preset.DefaultModel),
	}
}
