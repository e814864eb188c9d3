// Package inference wraps the external text providers behind one interface. The provider is
// chosen once at start-up; a nil Inferencer means the service runs in demo mode.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"petvoice/pkg/config"
)

// Inferencer sends a system prompt and a user turn to a text provider.
type Inferencer interface {
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
	Name() string
}

// FromConfig builds the configured provider. It returns nil, nil when no API key is set,
// which is the normal demo configuration.
func FromConfig(cfg config.LLM) (Inferencer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		inf := NewOpenAIInferencer(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			inf.ChangeBaseURL(cfg.BaseURL)
		}
		return inf, nil
	case "gemini":
		inf, err := NewGeminiInferencer(cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return inf, nil
	default:
		preset, ok := Presets[strings.ToLower(cfg.Provider)]
		if !ok {
			return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
		}
		inf := NewCompatibleInferencer(preset, cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			inf.ChangeBaseURL(cfg.BaseURL)
		}
		return inf, nil
	}
}
