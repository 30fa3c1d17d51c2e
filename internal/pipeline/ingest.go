package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"docmind/internal/chunker"
	"docmind/internal/core/schema"
	"docmind/internal/embedding"
	"docmind/internal/extract"
	"docmind/internal/session"
	"docmind/pkg/logger"
)

// File is one uploaded document before extraction.
type File struct {
	Name string
	Data []byte
}

// FileResult reports the outcome of ingesting one file. Err is set for
// per-document failures; the rest of the batch is unaffected.
type FileResult struct {
	FileName string `json:"filename"`
	Chunks   int    `json:"chunks_extracted"`
	Err      error  `json:"-"`
	ErrMsg   string `json:"error,omitempty"`
}

// IngestResult reports the outcome of one batch.
type IngestResult struct {
	Results     []FileResult `json:"results"`
	TotalChunks int          `json:"total_chunks_extracted"`
	Upserted    int          `json:"total_chunks_upserted"`
}

// IngestPipeline turns uploaded files into embedding records in the
// session's index: extract, chunk, embed, upsert.
type IngestPipeline struct {
	log         *logger.Logger
	registry    *extract.Registry
	chunker     *chunker.Chunker
	embedder    embedding.Embedding
	sessions    *session.Manager
	parallelism int
}

// NewIngestPipeline creates an IngestPipeline.
func NewIngestPipeline(
	registry *extract.Registry,
	chunk *chunker.Chunker,
	embedder embedding.Embedding,
	sessions *session.Manager,
	parallelism int,
	log *logger.Logger,
) *IngestPipeline {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &IngestPipeline{
		log:         log,
		registry:    registry,
		chunker:     chunk,
		embedder:    embedder,
		sessions:    sessions,
		parallelism: parallelism,
	}
}

// Run ingests a batch of files into the session. Extraction and chunking
// fan out across documents with bounded parallelism; per-document failures
// are collected into the result instead of aborting the batch. Embedding
// and upsert failures are fatal to the request because without them no
// record reached the index.
func (p *IngestPipeline) Run(ctx context.Context, sessionID string, files []File) (*IngestResult, error) {
	log := p.log.WithSession(sessionID)
	log.Info(fmt.Sprintf("starting ingest of %d files", len(files)))

	results := make([]FileResult, len(files))
	chunksPerFile := make([][]schema.Chunk, len(files))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.parallelism)
	for i := range files {
		eg.Go(func() error {
			f := files[i]
			results[i].FileName = f.Name

			doc, err := p.registry.Extract(gCtx, f.Data, f.Name)
			if err != nil {
				results[i].Err = err
				results[i].ErrMsg = err.Error()
				log.Warn(fmt.Sprintf("extraction failed for %s: %v", f.Name, err))
				return nil // per-document failure, batch continues
			}

			chunks := p.chunker.Split(doc)
			chunksPerFile[i] = chunks
			results[i].Chunks = len(chunks)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []schema.Chunk
	for _, chunks := range chunksPerFile {
		all = append(all, chunks...)
	}

	result := &IngestResult{Results: results, TotalChunks: len(all)}
	if len(all) == 0 {
		log.Info("ingest produced no chunks")
		return result, nil
	}

	texts := make([]string, len(all))
	for i, c := range all {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(all), err)
	}

	records := make([]schema.EmbeddingRecord, len(all))
	for i, c := range all {
		records[i] = schema.EmbeddingRecord{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			FileName:   c.FileName,
			Ordinal:    c.Ordinal,
			Page:       c.Page,
			Text:       c.Text,
			Vector:     vectors[i],
		}
	}

	idx, err := p.sessions.Index(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := idx.Upsert(ctx, records); err != nil {
		return nil, err
	}

	result.Upserted = len(records)
	log.Info(fmt.Sprintf("ingested %d chunks from %d files", len(records), len(files)))
	return result, nil
}
