package memory

import (
	"context"
	"testing"

	"docmind/internal/core/schema"
)

func TestSessionsNeverShareRecords(t *testing.T) {
	ctx := context.Background()
	p := NewProvider()

	a, err := p.Open(ctx, "session-a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, err := p.Open(ctx, "session-b")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = a.Upsert(ctx, []schema.EmbeddingRecord{
		{ChunkID: "a1", Text: "private to a", Vector: []float32{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := b.Search(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("session b saw %d records from session a", len(hits))
	}

	all, err := b.AllRecords(ctx)
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("session b enumerated %d records from session a", len(all))
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := NewProvider()

	s, err := p.Open(ctx, "s1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	records := []schema.EmbeddingRecord{
		{ChunkID: "c1", Text: "first", Vector: []float32{1, 0}},
		{ChunkID: "c2", Text: "second", Vector: []float32{0, 1}},
	}
	for i := 0; i < 2; i++ {
		if err := s.Upsert(ctx, records); err != nil {
			t.Fatalf("Upsert #%d: %v", i+1, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 records after double upsert, got %d", n)
	}
}

func TestSearchOrdersByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	p := NewProvider()

	s, _ := p.Open(ctx, "s1")
	err := s.Upsert(ctx, []schema.EmbeddingRecord{
		{ChunkID: "far", Vector: []float32{0, 1}},
		{ChunkID: "near", Vector: []float32{1, 0.1}},
		{ChunkID: "exact", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := s.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "exact" || hits[1].ChunkID != "near" {
		t.Errorf("hit order = %s, %s; want exact, near", hits[0].ChunkID, hits[1].ChunkID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not descending: %f < %f", hits[0].Score, hits[1].Score)
	}
}

func TestDropRemovesSession(t *testing.T) {
	ctx := context.Background()
	p := NewProvider()

	s, _ := p.Open(ctx, "s1")
	err := s.Upsert(ctx, []schema.EmbeddingRecord{{ChunkID: "c1", Vector: []float32{1}}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := s.Drop(ctx); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	fresh, err := p.Open(ctx, "s1")
	if err != nil {
		t.Fatalf("Open after Drop: %v", err)
	}
	n, err := fresh.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty store after Drop, got %d records", n)
	}
}
