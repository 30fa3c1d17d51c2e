package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docmind/internal/chunker"
	"docmind/internal/config"
	"docmind/internal/core/apperr"
	"docmind/internal/extract"
	"docmind/internal/index/memory"
	"docmind/internal/session"
	"docmind/pkg/logger"
)

// pngHeader is enough for content sniffing to report image/png, a format
// no extractor accepts.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func newTestSessions() *session.Manager {
	return session.NewManager(
		memory.NewProvider(),
		session.NewMemoryHistory(),
		config.SessionsConfig{HistoryCap: 20, IdleTTL: "0s"},
		logger.New("ingest-test"),
	)
}

func newTestIngest(sessions *session.Manager) *IngestPipeline {
	return NewIngestPipeline(
		extract.NewRegistry(),
		chunker.New(200, 0, 10),
		newFakeEmbedder(map[string][]float32{
			"alpha": {1, 0, 0},
			"beta":  {0, 1, 0},
		}),
		sessions,
		2,
		logger.New("ingest-test"),
	)
}

func TestIngestBatchToleratesPerFileFailure(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()
	p := newTestIngest(sessions)

	files := []File{
		{Name: "good.txt", Data: []byte(strings.Repeat("alpha passage text. ", 5))},
		{Name: "image.png", Data: pngHeader},
	}

	result, err := p.Run(ctx, "s1", files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected a result per file, got %d", len(result.Results))
	}

	good := result.Results[0]
	if good.Err != nil {
		t.Errorf("good.txt failed: %v", good.Err)
	}
	if good.Chunks == 0 {
		t.Error("good.txt produced no chunks")
	}

	bad := result.Results[1]
	if !errors.Is(bad.Err, apperr.ErrUnsupportedFormat) {
		t.Errorf("image.png error = %v, want ErrUnsupportedFormat", bad.Err)
	}
	if bad.ErrMsg == "" {
		t.Error("per-file error message not surfaced")
	}

	if result.Upserted != result.TotalChunks || result.Upserted == 0 {
		t.Errorf("upserted %d of %d extracted chunks", result.Upserted, result.TotalChunks)
	}

	idx, err := sessions.Index(ctx, "s1")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != result.Upserted {
		t.Errorf("index holds %d records, result claims %d", n, result.Upserted)
	}
}

func TestIngestEmbeddingFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()
	p := NewIngestPipeline(
		extract.NewRegistry(),
		chunker.New(200, 0, 10),
		failingEmbedder{},
		sessions,
		2,
		logger.New("ingest-test"),
	)

	_, err := p.Run(ctx, "s1", []File{
		{Name: "doc.txt", Data: []byte(strings.Repeat("some passage text. ", 5))},
	})
	if !errors.Is(err, apperr.ErrServiceUnavailable) {
		t.Fatalf("expected the embedding failure to abort the batch, got %v", err)
	}
}

func TestRetrievalStaysWithinSession(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()
	p := newTestIngest(sessions)

	_, err := p.Run(ctx, "session-a", []File{
		{Name: "a.txt", Data: []byte(strings.Repeat("alpha material here. ", 5))},
	})
	if err != nil {
		t.Fatalf("Run(a): %v", err)
	}
	_, err = p.Run(ctx, "session-b", []File{
		{Name: "b.txt", Data: []byte(strings.Repeat("beta material here. ", 5))},
	})
	if err != nil {
		t.Fatalf("Run(b): %v", err)
	}

	retriever := NewRetriever(newFakeEmbedder(map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
	}), sessions, 20, logger.New("ingest-test"))

	hits, err := retriever.Retrieve(ctx, "session-b", "tell me about alpha")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, h := range hits {
		if h.FileName != "b.txt" {
			t.Errorf("session-b retrieval returned chunk from %s", h.FileName)
		}
	}
}

func TestRetrieveEmptySessionYieldsNoCandidates(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessions()

	retriever := NewRetriever(newFakeEmbedder(nil), sessions, 20, logger.New("ingest-test"))
	hits, err := retriever.Retrieve(ctx, "fresh", "anything")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no candidates from an empty session, got %d", len(hits))
	}
}
