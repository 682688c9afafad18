// Package factory builds the single configured llm.Client for the process
// lifetime. Kept separate from package llm itself so the provider
// packages (which import llm.Client) don't form an import cycle with it.
package factory

import (
	"context"
	"fmt"

	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/llm/providers/anthropic"
	"github.com/formpilotai/formpilot/internal/llm/providers/gemini"
	"github.com/formpilotai/formpilot/internal/llm/providers/openai"
)

// Config is the subset of config.LLMConfig a provider constructor needs.
type Config struct {
	Provider    string
	APIEndpoint string
	APIKey      string
	ModelName   string
}

// New builds the configured Client. FormPilot makes one model call per
// node per turn — no fallback chain across providers and no router to
// survive a primary-provider outage across concurrent runs; that
// complexity has no job to do here (a failed LLM call uses up one attempt
// of the guard retry budget in internal/guards, and the turn ends in the
// fallback MESSAGE once that budget is spent).
func New(ctx context.Context, cfg Config) (llm.Client, error) {
	switch cfg.Provider {
	case "", "openai":
		return openai.New(cfg.APIKey, cfg.APIEndpoint, cfg.ModelName), nil
	case "anthropic":
		return anthropic.New(cfg.APIKey, cfg.ModelName), nil
	case "gemini":
		return gemini.New(ctx, cfg.APIKey, cfg.ModelName)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
