package session

import (
	"context"
	"sync"
	"time"

	"docmind/internal/config"
	"docmind/internal/core/schema"
	"docmind/internal/index"
	"docmind/pkg/logger"
)

// Session is one private knowledge base: an isolated vector collection
// plus a capped conversational history.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time
}

// Manager tracks live sessions, owns their history, and ends them either
// on explicit request or after the idle TTL elapses. Sessions are
// independent of each other; per-session state carries its own locking so
// one session's long analysis never blocks another's queries.
type Manager struct {
	log      *logger.Logger
	provider index.Provider
	history  HistoryStore
	cap      int
	idleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager over the given index provider and history
// store.
func NewManager(provider index.Provider, history HistoryStore, cfg config.SessionsConfig, log *logger.Logger) *Manager {
	return &Manager{
		log:      log,
		provider: provider,
		history:  history,
		cap:      cfg.HistoryCap,
		idleTTL:  cfg.IdleTTLDuration(),
		sessions: make(map[string]*Session),
	}
}

// Touch records activity for a session, creating it on first interaction.
func (m *Manager) Touch(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		now := time.Now()
		s = &Session{ID: sessionID, CreatedAt: now}
		m.sessions[sessionID] = s
		m.log.WithSession(sessionID).Info("session created")
	}
	s.LastActive = time.Now()
	return s
}

// Index opens the session's private vector collection.
func (m *Manager) Index(ctx context.Context, sessionID string) (index.SessionIndex, error) {
	m.Touch(sessionID)
	return m.provider.Open(ctx, sessionID)
}

// AppendTurn records one exchange in the session's history, evicting the
// oldest turn beyond the cap.
func (m *Manager) AppendTurn(ctx context.Context, sessionID string, turn schema.Turn) error {
	m.Touch(sessionID)
	return m.history.Append(ctx, sessionID, turn, m.cap)
}

// History returns the session's retained turns, oldest first.
func (m *Manager) History(ctx context.Context, sessionID string) ([]schema.Turn, error) {
	return m.history.History(ctx, sessionID)
}

// End destroys the session: drops its vector collection and clears its
// history. Ending an unknown or already-ended session is not an error.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	idx, err := m.provider.Open(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := idx.Drop(ctx); err != nil {
		return err
	}
	if err := m.history.Clear(ctx, sessionID); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	m.log.WithSession(sessionID).Info("session ended")
	return nil
}

// StartReaper launches a background loop that ends sessions idle longer
// than the TTL. A zero TTL disables reaping. The loop stops when ctx is
// cancelled.
func (m *Manager) StartReaper(ctx context.Context) {
	if m.idleTTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(m.idleTTL / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.reap(ctx)
			}
		}
	}()
}

func (m *Manager) reap(ctx context.Context) {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastActive.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if err := m.End(ctx, id); err != nil {
			m.log.WithSession(id).Warn("failed to reap idle session: " + err.Error())
			continue
		}
		m.log.WithSession(id).Info("reaped idle session")
	}
}
