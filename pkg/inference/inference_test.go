package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"petvoice/pkg/config"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

type chatRequest struct {
	Model               string  `json:"model"`
	MaxCompletionTokens int64   `json:"max_completion_tokens"`
	Temperature         float64 `json:"temperature"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIInfer(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion("Woof! Let's go outside 🐕"))
	}))
	defer srv.Close()

	inf := NewOpenAIInferencer("sk-test", "")
	inf.ChangeBaseURL(srv.URL + "/v1/")

	out, err := inf.Infer(context.Background(), &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(800),
	}, "You are a dog named Rex.", "walk?")
	require.NoError(t, err)
	assert.Equal(t, "Woof! Let's go outside 🐕", out)

	assert.Equal(t, defaultOpenAIModel, got.Model)
	assert.EqualValues(t, 800, got.MaxCompletionTokens)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are a dog named Rex.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "walk?", got.Messages[1].Content)
}

func TestExplicitZeroTemperatureIsKept(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		var got struct {
			Temperature *float64 `json:"temperature"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completion("Woof."))
		}))
		defer srv.Close()

		inf := NewOpenAIInferencer("sk-test", "")
		inf.ChangeBaseURL(srv.URL + "/v1/")
		_, err := inf.Infer(context.Background(), &openai.ChatCompletionNewParams{
			Temperature: openai.Float(0),
		}, "system", "user")
		require.NoError(t, err)
		require.NotNil(t, got.Temperature)
		assert.Zero(t, *got.Temperature)
	})

	t.Run("gemini", func(t *testing.T) {
		var got struct {
			GenerationConfig struct {
				Temperature *float64 `json:"temperature"`
			} `json:"generationConfig"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Meow."}]}}]}`)
		}))
		defer srv.Close()

		inf, err := NewGeminiInferencerWithConfig(&genai.ClientConfig{
			APIKey:      "g-test",
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
		}, "")
		require.NoError(t, err)
		_, err = inf.Infer(context.Background(), &openai.ChatCompletionNewParams{
			Temperature: openai.Float(0),
		}, "system", "user")
		require.NoError(t, err)
		require.NotNil(t, got.GenerationConfig.Temperature)
		assert.Zero(t, *got.GenerationConfig.Temperature)
	})
}

func TestOpenAIInferErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`},
		{"blank content", http.StatusOK, completion("   ")},
		{"malformed body", http.StatusOK, `{"choices": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			inf := NewOpenAIInferencer("sk-test", "")
			inf.ChangeBaseURL(srv.URL + "/v1/")
			out, err := inf.Infer(context.Background(), nil, "system", "user")
			require.Error(t, err)
			assert.Empty(t, out)
			assert.Equal(t, 1, calls, "provider must be called exactly once")
		})
	}
}

func TestGeminiInfer(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Meow~ 🐾"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	inf, err := NewGeminiInferencerWithConfig(&genai.ClientConfig{
		APIKey:      "g-test",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "gemini", inf.Name())

	out, err := inf.Infer(context.Background(), nil, "You are a cat named Mochi.", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Meow~ 🐾", out)
	assert.Contains(t, path, "gemini-2.5-flash:generateContent")
}

func TestFromConfig(t *testing.T) {
	t.Run("no key is demo mode", func(t *testing.T) {
		inf, err := FromConfig(config.LLM{Provider: "openai"})
		require.NoError(t, err)
		assert.Nil(t, inf)
	})

	t.Run("openai", func(t *testing.T) {
		inf, err := FromConfig(config.LLM{Provider: "openai", APIKey: "sk"})
		require.NoError(t, err)
		require.NotNil(t, inf)
		assert.Equal(t, "openai", inf.Name())
	})

	t.Run("compatible presets", func(t *testing.T) {
		for name := range Presets {
			inf, err := FromConfig(config.LLM{Provider: name, APIKey: "key"})
			require.NoError(t, err)
			require.NotNil(t, inf)
			assert.Equal(t, name, inf.Name())
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		inf, err := FromConfig(config.LLM{Provider: "parrot", APIKey: "key"})
		require.Error(t, err)
		assert.Nil(t, inf)
	})
}
