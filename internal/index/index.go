package index

import (
	"context"

	"docmind/internal/core/schema"
)

// SessionIndex is one session's private vector collection. Isolation is
// structural: every session gets its own namespace and no operation can
// reach across it.
type SessionIndex interface {
	// Upsert writes records into the collection, idempotent by chunk id.
	Upsert(ctx context.Context, records []schema.EmbeddingRecord) error

	// Search returns the k records most similar to the query vector,
	// ranked by descending cosine similarity.
	Search(ctx context.Context, vector []float32, k int) ([]schema.ScoredRecord, error)

	// AllRecords enumerates the full collection, used by theme analysis.
	AllRecords(ctx context.Context) ([]schema.EmbeddingRecord, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// Drop irreversibly deletes the whole collection. Dropping a
	// collection that is already gone is not an error.
	Drop(ctx context.Context) error
}

// Provider opens the index namespace belonging to a session, creating it
// on first use. Passed into every component by reference; there is no
// process-wide singleton.
type Provider interface {
	Open(ctx context.Context, sessionID string) (SessionIndex, error)
}
