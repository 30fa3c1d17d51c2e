package llm

import (
	"context"
	"fmt"

	"docmind/internal/config"
)

// CompletionService is the interface over the hosted LLM. It is given a
// fully built prompt and returns generated text; prompt construction and
// output parsing stay with the callers.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewClient is a factory that builds the configured completion provider,
// wrapped in the bounded retry policy.
func NewClient(cfg config.LLMConfig) (CompletionService, error) {
	var inner CompletionService
	var err error

	switch cfg.Provider {
	case "ollama":
		inner, err = NewOllama(cfg.Model, cfg.BaseURL)
	case "openai":
		inner, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithRetry(inner, PolicyFromConfig(cfg.Retry)), nil
}
