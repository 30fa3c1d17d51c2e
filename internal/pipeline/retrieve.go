package pipeline

import (
	"context"
	"fmt"

	"docmind/internal/core/schema"
	"docmind/internal/embedding"
	"docmind/internal/session"
	"docmind/pkg/logger"
)

// Retriever runs the first ranking stage: embed the query and pull an
// over-fetched candidate pool from the session index, leaving precision to
// the reranker.
type Retriever struct {
	log      *logger.Logger
	embedder embedding.Embedding
	sessions *session.Manager
	overFetch int
}

// NewRetriever creates a Retriever. overFetch is the candidate pool size
// requested from the index, larger than the final context window.
func NewRetriever(embedder embedding.Embedding, sessions *session.Manager, overFetch int, log *logger.Logger) *Retriever {
	if overFetch <= 0 {
		overFetch = 20
	}
	return &Retriever{log: log, embedder: embedder, sessions: sessions, overFetch: overFetch}
}

// Retrieve returns similarity-ranked candidates for the query. A session
// with no indexed chunks yields an empty list, not an error; the
// synthesizer turns that into its fixed no-documents answer.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, query string) ([]schema.ScoredRecord, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	idx, err := r.sessions.Index(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hits, err := idx.Search(ctx, vector, r.overFetch)
	if err != nil {
		return nil, err
	}

	r.log.WithSession(sessionID).Debug(fmt.Sprintf("retrieved %d candidates", len(hits)))
	return hits, nil
}
