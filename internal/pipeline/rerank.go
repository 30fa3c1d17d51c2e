package pipeline

import (
	"context"
	"fmt"
	"sort"

	"docmind/internal/core/schema"
	"docmind/internal/embedding"
	"docmind/internal/vec"
)

// Reranker runs the second ranking stage: a fresh cosine pass between the
// query and each candidate's full text in the same embedding space. The
// initial retrieval score comes from an approximate index search; this
// pass is exact and scores the complete chunk text, trading the
// over-fetched recall for precision in the final context window.
type Reranker struct {
	embedder embedding.Embedding
	finalN   int
}

// NewReranker creates a Reranker keeping the top finalN candidates.
func NewReranker(embedder embedding.Embedding, finalN int) *Reranker {
	if finalN <= 0 {
		finalN = 5
	}
	return &Reranker{embedder: embedder, finalN: finalN}
}

// Rerank rescores candidates against the query and returns the top finalN
// in descending score order. The sort is stable, so ties keep their
// original retrieval rank, and identical inputs always produce identical
// output.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []schema.ScoredRecord) ([]schema.ScoredRecord, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	for _, c := range candidates {
		texts = append(texts, c.Text)
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("rerank embedding failed: %w", err)
	}
	queryVec := vectors[0]

	rescored := make([]schema.ScoredRecord, len(candidates))
	for i, c := range candidates {
		rescored[i] = c
		rescored[i].Score = vec.Cosine(queryVec, vectors[i+1])
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		return rescored[i].Score > rescored[j].Score
	})

	if len(rescored) > r.finalN {
		rescored = rescored[:r.finalN]
	}
	return rescored, nil
}
