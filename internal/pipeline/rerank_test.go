package pipeline

import (
	"context"
	"reflect"
	"testing"

	"docmind/internal/core/schema"
)

func TestRerankReordersByExactSimilarity(t *testing.T) {
	ctx := context.Background()
	embedder := newFakeEmbedder(map[string][]float32{
		"query":     {1, 0, 0},
		"on-topic":  {0.9, 0.1, 0},
		"off-topic": {0, 1, 0},
	})
	r := NewReranker(embedder, 5)

	// Retrieval put the off-topic chunk first; the exact pass should flip it.
	candidates := []schema.ScoredRecord{
		{EmbeddingRecord: schema.EmbeddingRecord{ChunkID: "c1", Text: "off-topic chunk"}, Score: 0.9},
		{EmbeddingRecord: schema.EmbeddingRecord{ChunkID: "c2", Text: "on-topic chunk"}, Score: 0.8},
	}

	ranked, err := r.Rerank(ctx, "the query", candidates)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0].ChunkID != "c2" {
		t.Errorf("top result = %s, want c2", ranked[0].ChunkID)
	}
}

func TestRerankTruncatesToFinalN(t *testing.T) {
	ctx := context.Background()
	r := NewReranker(newFakeEmbedder(nil), 2)

	candidates := make([]schema.ScoredRecord, 6)
	for i := range candidates {
		candidates[i].ChunkID = string(rune('a' + i))
		candidates[i].Text = "filler"
	}

	ranked, err := r.Rerank(ctx, "q", candidates)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results after truncation, got %d", len(ranked))
	}
}

func TestRerankIsDeterministic(t *testing.T) {
	ctx := context.Background()
	r := NewReranker(newFakeEmbedder(nil), 5)

	// All candidates score identically; stable sort must preserve the
	// retrieval order on every run.
	candidates := []schema.ScoredRecord{
		{EmbeddingRecord: schema.EmbeddingRecord{ChunkID: "first", Text: "same"}},
		{EmbeddingRecord: schema.EmbeddingRecord{ChunkID: "second", Text: "same"}},
		{EmbeddingRecord: schema.EmbeddingRecord{ChunkID: "third", Text: "same"}},
	}

	var previous []string
	for run := 0; run < 3; run++ {
		ranked, err := r.Rerank(ctx, "q", candidates)
		if err != nil {
			t.Fatalf("Rerank: %v", err)
		}
		ids := make([]string, len(ranked))
		for i, c := range ranked {
			ids[i] = c.ChunkID
		}
		if previous != nil && !reflect.DeepEqual(ids, previous) {
			t.Fatalf("run %d order %v differs from %v", run, ids, previous)
		}
		previous = ids
	}
	if !reflect.DeepEqual(previous, []string{"first", "second", "third"}) {
		t.Errorf("tied candidates lost retrieval order: %v", previous)
	}
}

func TestRerankEmptyCandidates(t *testing.T) {
	r := NewReranker(newFakeEmbedder(nil), 5)
	ranked, err := r.Rerank(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("expected no results for empty candidates, got %d", len(ranked))
	}
}
