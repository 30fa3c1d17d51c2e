package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"docmind/internal/core/apperr"
)

// OpenAI is a completion client for the OpenAI chat API.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAI creates a new OpenAI completion client.
func NewOpenAI(apiKey, model string, temperature float32) (*OpenAI, error) {
	config := openai.DefaultConfig(apiKey)
	client := openai.NewClientWithConfig(config)
	return &OpenAI{client: client, model: model, temperature: temperature}, nil
}

// Complete generates text for the given prompt via a single-turn chat
// completion.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: &o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyError maps API failures onto the retryable error kinds.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return fmt.Errorf("%w: %v", apperr.ErrRateLimited, err)
		case 500, 502, 503:
			return fmt.Errorf("%w: %v", apperr.ErrServiceUnavailable, err)
		}
		return err
	}
	return fmt.Errorf("%w: %v", apperr.ErrServiceUnavailable, err)
}

var _ CompletionService = (*OpenAI)(nil)
