package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"

	"docmind/internal/core/apperr"
)

// Ollama is a completion client for a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates a new Ollama completion client. An empty baseURL
// defaults to the local Ollama address.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Complete generates text for the given prompt in one non-streamed call.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	var result string

	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp ollama.GenerateResponse) error {
		result = resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generate: %v", apperr.ErrServiceUnavailable, err)
	}

	return result, nil
}

var _ CompletionService = (*Ollama)(nil)
