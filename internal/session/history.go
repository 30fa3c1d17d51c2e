package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"docmind/internal/config"
	"docmind/internal/core/schema"
)

// HistoryStore keeps a session's conversational history, capped at a
// fixed number of most recent turns with FIFO eviction.
type HistoryStore interface {
	// Append adds a turn and evicts the oldest once the cap is exceeded.
	Append(ctx context.Context, sessionID string, turn schema.Turn, cap int) error

	// History returns the retained turns, oldest first.
	History(ctx context.Context, sessionID string) ([]schema.Turn, error)

	// Clear removes all history for the session.
	Clear(ctx context.Context, sessionID string) error
}

// MemoryHistory is the in-process HistoryStore.
type MemoryHistory struct {
	mu    sync.RWMutex
	turns map[string][]schema.Turn
}

// NewMemoryHistory creates an empty in-memory history store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{turns: make(map[string][]schema.Turn)}
}

func (m *MemoryHistory) Append(ctx context.Context, sessionID string, turn schema.Turn, cap int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.turns[sessionID], turn)
	if cap > 0 && len(turns) > cap {
		turns = turns[len(turns)-cap:]
	}
	m.turns[sessionID] = turns
	return nil
}

func (m *MemoryHistory) History(ctx context.Context, sessionID string) ([]schema.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.turns[sessionID]
	out := make([]schema.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MemoryHistory) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	return nil
}

// RedisHistory stores history in a Redis list per session, so multiple
// instances can share session state.
type RedisHistory struct {
	client *redis.Client
}

// NewRedisHistory connects to Redis and returns a RedisHistory.
func NewRedisHistory(cfg config.RedisConfig) *RedisHistory {
	return &RedisHistory{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func historyKey(sessionID string) string {
	return "docmind:history:" + sessionID
}

func (r *RedisHistory) Append(ctx context.Context, sessionID string, turn schema.Turn, cap int) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode turn: %w", err)
	}

	key := historyKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if cap > 0 {
		pipe.LTrim(ctx, key, int64(-cap), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisHistory) History(ctx context.Context, sessionID string) ([]schema.Turn, error) {
	raw, err := r.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history for session %s: %w", sessionID, err)
	}

	turns := make([]schema.Turn, 0, len(raw))
	for _, item := range raw {
		var turn schema.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("corrupt history entry for session %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *RedisHistory) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history for session %s: %w", sessionID, err)
	}
	return nil
}

var (
	_ HistoryStore = (*MemoryHistory)(nil)
	_ HistoryStore = (*RedisHistory)(nil)
)
