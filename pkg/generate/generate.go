// Package generate runs the persona pipeline: compile the prompt, ask the provider once, and
// fall back to the canned generator when the provider is missing or fails.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"petvoice/pkg/inference"
	"petvoice/pkg/mock"
	"petvoice/pkg/persona"
	"petvoice/pkg/utils"
)

// Origin tells callers where the text came from.
type Origin string

const (
	OriginProvider Origin = "provider"
	OriginFallback Origin = "fallback"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultTemperature = 0.8
)

// Token caps per mode.
var maxTokens = map[persona.Mode]int64{
	persona.ModeChat:  500,
	persona.ModeDiary: 800,
}

// Request is one generation call. Persona is a snapshot; the generator never mutates it.
type Request struct {
	Persona       persona.PetPersona
	OwnerNickname string
	Text          string
	Mode          persona.Mode
}

type Result struct {
	Text   string
	Origin Origin
	Prompt string

	// Err is the provider failure that caused a fallback. It is informational only.
	Err error
}

// ProviderError wraps any failure of the external provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

var errEmptyOutput = errors.New("provider returned empty text")

type Generator struct {
	inf         inference.Inferencer
	mock        *mock.Generator
	timeout     time.Duration
	temperature float64
}

type Option func(*Generator)

func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithMock(m *mock.Generator) Option {
	return func(g *Generator) {
		if m != nil {
			g.mock = m
		}
	}
}

func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// New returns a Generator backed by inf. A nil inf runs every call through the fallback.
func New(inf inference.Inferencer, opts ...Option) *Generator {
	g := &Generator{
		inf:         inf,
		mock:        mock.New(),
		timeout:     DefaultTimeout,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DemoMode reports whether no provider is configured.
func (g *Generator) DemoMode() bool {
	return g.inf == nil
}

// Generate always returns text unless the persona itself is invalid, in which case the
// error matches persona.ErrInvalidPersona.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	mode := req.Mode.Normalize()
	prompt, err := persona.Compile(req.Persona, req.OwnerNickname, mode)
	if err != nil {
		return Result{}, err
	}

	if g.inf == nil {
		return g.fallback(req.Persona, req.Text, mode, prompt, nil), nil
	}

	if log.GetLevel() <= log.DebugLevel {
		if tokens, err := utils.NumTokensFromMessages(prompt + req.Text); err == nil {
			log.Debug("calling provider", "provider", g.inf.Name(), "mode", mode, "tokens", tokens)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(maxTokens[mode]),
		Temperature:         openai.Float(g.temperature),
	}
	text, err := g.inf.Infer(ctx, params, prompt, req.Text)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyOutput
	}
	if err != nil {
		perr := &ProviderError{Provider: g.inf.Name(), Err: err}
		log.Warn("provider failed, answering with fallback", "provider", g.inf.Name(), "mode", mode, "pet", req.Persona.Name, "error", err)
		return g.fallback(req.Persona, req.Text, mode, prompt, perr), nil
	}

	return Result{Text: text, Origin: OriginProvider, Prompt: prompt}, nil
}

func (g *Generator) fallback(p persona.PetPersona, text string, mode persona.Mode, prompt string, cause error) Result {
	return Result{
		Text:   g.mock.Generate(p, text, mode),
		Origin: OriginFallback,
		Prompt: prompt,
		Err:    cause,
	}
}
