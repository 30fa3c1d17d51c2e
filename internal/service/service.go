package service

import (
	"context"
	"fmt"
	"time"

	"docmind/internal/core/schema"
	"docmind/internal/pipeline"
	"docmind/internal/session"
	"docmind/internal/themes"
	"docmind/pkg/logger"
)

// Service is the orchestration facade the transport layer talks to. It
// owns the wiring between the session manager and the pipelines, plus the
// history bookkeeping around each answered question.
type Service struct {
	log         *logger.Logger
	sessions    *session.Manager
	ingest      *pipeline.IngestPipeline
	retriever   *pipeline.Retriever
	reranker    *pipeline.Reranker
	synthesizer *pipeline.Synthesizer
	themes      *themes.Engine
}

// New creates a Service.
func New(
	sessions *session.Manager,
	ingest *pipeline.IngestPipeline,
	retriever *pipeline.Retriever,
	reranker *pipeline.Reranker,
	synthesizer *pipeline.Synthesizer,
	themeEngine *themes.Engine,
	log *logger.Logger,
) *Service {
	return &Service{
		log:         log,
		sessions:    sessions,
		ingest:      ingest,
		retriever:   retriever,
		reranker:    reranker,
		synthesizer: synthesizer,
		themes:      themeEngine,
	}
}

// Ingest adds a batch of uploaded files to the session's knowledge base.
// Per-document failures are reported in the result; only embedding or
// store failures abort the batch.
func (s *Service) Ingest(ctx context.Context, sessionID string, files []pipeline.File) (*pipeline.IngestResult, error) {
	s.sessions.Touch(sessionID)
	return s.ingest.Run(ctx, sessionID, files)
}

// Ask answers a question against the session's documents and records the
// exchange in the session history.
func (s *Service) Ask(ctx context.Context, sessionID, query string) (*schema.Answer, error) {
	log := s.log.WithSession(sessionID)

	candidates, err := s.retriever.Retrieve(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}

	ranked := candidates
	if len(candidates) > 0 {
		ranked, err = s.reranker.Rerank(ctx, query, candidates)
		if err != nil {
			// Reranking is an accuracy refinement; fall back to the raw
			// retrieval order rather than failing the question.
			log.Warn(fmt.Sprintf("reranker failed, using retrieval order: %v", err))
			ranked = candidates
		}
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, query, history, ranked)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.sessions.AppendTurn(ctx, sessionID, schema.Turn{
		Role: schema.RoleUser, Text: query, At: now,
	}); err != nil {
		return nil, err
	}
	if err := s.sessions.AppendTurn(ctx, sessionID, schema.Turn{
		Role: schema.RoleAssistant, Text: answer.Text, Citations: answer.Citations, At: now,
	}); err != nil {
		return nil, err
	}

	return answer, nil
}

// AnalyzeThemes clusters the session's corpus and streams discovered
// themes. The returned analysis carries the insufficient-data signal when
// the corpus is too small.
func (s *Service) AnalyzeThemes(ctx context.Context, sessionID string) (*themes.Analysis, error) {
	s.sessions.Touch(sessionID)
	return s.themes.Analyze(ctx, sessionID)
}

// History returns the session's retained conversational turns.
func (s *Service) History(ctx context.Context, sessionID string) ([]schema.Turn, error) {
	return s.sessions.History(ctx, sessionID)
}

// EndSession destroys the session's collection and history. Idempotent.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}
