package embedding

import (
	"context"
	"fmt"

	"docmind/internal/config"
)

// Embedding is the interface every embedding provider implements. The same
// model embeds both passages and queries so similarity scores are
// comparable, and output is deterministic for identical input.
type Embedding interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for a batch of texts. Batching is a
	// throughput optimization only: the result is identical to calling
	// Embed per item.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewClient is a factory that builds the configured embedding provider.
func NewClient(cfg config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
