package memory

import (
	"context"
	"sort"
	"sync"

	"docmind/internal/core/schema"
	"docmind/internal/index"
	"docmind/internal/vec"
)

// Provider is an in-memory index provider used for tests and local runs.
// Each session gets its own store; nothing is shared between them.
type Provider struct {
	mu       sync.Mutex
	sessions map[string]*Store
}

// NewProvider creates an empty in-memory provider.
func NewProvider() *Provider {
	return &Provider{sessions: make(map[string]*Store)}
}

// Open returns the session's store, creating it on first use.
func (p *Provider) Open(ctx context.Context, sessionID string) (index.SessionIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		s = &Store{
			provider:  p,
			sessionID: sessionID,
			records:   make(map[string]schema.EmbeddingRecord),
		}
		p.sessions[sessionID] = s
	}
	return s, nil
}

func (p *Provider) drop(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, sessionID)
}

// Store is a brute-force cosine similarity store for a single session.
type Store struct {
	provider  *Provider
	sessionID string

	mu      sync.RWMutex
	records map[string]schema.EmbeddingRecord
	order   []string // insertion order of chunk ids, for stable enumeration
}

func (s *Store) Upsert(ctx context.Context, records []schema.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if _, exists := s.records[r.ChunkID]; !exists {
			s.order = append(s.order, r.ChunkID)
		}
		s.records[r.ChunkID] = r
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]schema.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.records) == 0 {
		return nil, nil
	}

	scored := make([]schema.ScoredRecord, 0, len(s.records))
	for _, id := range s.order {
		r := s.records[id]
		scored = append(scored, schema.ScoredRecord{
			EmbeddingRecord: r,
			Score:           vec.Cosine(vector, r.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (s *Store) AllRecords(ctx context.Context) ([]schema.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schema.EmbeddingRecord, 0, len(s.records))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *Store) Drop(ctx context.Context) error {
	s.mu.Lock()
	s.records = make(map[string]schema.EmbeddingRecord)
	s.order = nil
	s.mu.Unlock()

	s.provider.drop(s.sessionID)
	return nil
}

var (
	_ index.Provider     = (*Provider)(nil)
	_ index.SessionIndex = (*Store)(nil)
)
