// Package llm defines the classification client contract shared by the
// provider engines.
package llm

import (
	"context"
	"fmt"
	"strings"

	"icf-classifier/api/internal/prompt"
)

// Temperature favours literal extraction over paraphrase.
const Temperature = 0.3

// Engine sends one single-turn classification request and returns the raw
// reply text. Implementations never retry and never log image payloads.
// Failures are *apperr.Error of kind transport, auth or upstream.
type Engine interface {
	Name() string
	GetModel() string
	Classify(ctx context.Context, p prompt.Prompt) (string, error)
}

type Engines struct {
	OpenAI Engine
	Gemini Engine
	Stub   Engine
}

// GetEngine resolves the provider configured at startup.
func (e *Engines) GetEngine(name string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gpt", "openai":
		eng = e.OpenAI
	case "gemini", "google":
		eng = e.Gemini
	case "stub":
		eng = e.Stub
	default:
		return nil, fmt.Errorf("unknown llm provider %q; use openai, gemini or stub", name)
	}
	if eng == nil {
		return nil, fmt.Errorf("llm provider %q is not configured", name)
	}
	return eng, nil
}
