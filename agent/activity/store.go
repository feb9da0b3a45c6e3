package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/agentrouter/internal/cache"
)

// Store 持久化委派日志
type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns the newest entries first. An empty agentID means all agents.
	Recent(ctx context.Context, agentID string, limit int) ([]Entry, error)
	Processed(ctx context.Context) (int64, error)
}

// =============================================================================
// 🧠 内存存储
// =============================================================================

// MemoryStore keeps the newest capacity entries in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   []Entry // oldest first
	capacity  int
	processed int64
}

// NewMemoryStore creates a store bounded to capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.capacity; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	s.processed++
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, agentID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(limit, len(s.entries)))
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if agentID == "" || s.entries[i].AgentID == agentID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) Processed(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processed, nil
}

// =============================================================================
// 💾 Redis 存储
// =============================================================================

const (
	keyLog       = "activity:log"
	keyAgentLog  = "activity:log:"
	keyProcessed = "activity:processed"
)

// RedisStore keeps capped per-agent and global lists in Redis.
type RedisStore struct {
	cache    *cache.Manager
	capacity int64
}

// NewRedisStore creates a store on top of an open cache manager.
func NewRedisStore(c *cache.Manager, capacity int) *RedisStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisStore{cache: c, capacity: int64(capacity)}
}

func (s *RedisStore) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}
	if err := s.cache.PushCapped(ctx, keyLog, s.capacity, string(data)); err != nil {
		return err
	}
	if err := s.cache.PushCapped(ctx, keyAgentLog+e.AgentID, s.capacity, string(data)); err != nil {
		return err
	}
	_, err = s.cache.Incr(ctx, keyProcessed)
	return err
}

func (s *RedisStore) Recent(ctx context.Context, agentID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}

	key := keyLog
	if agentID != "" {
		key = keyAgentLog + agentID
	}

	raw, err := s.cache.Range(ctx, key, 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode activity entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Processed(ctx context.Context) (int64, error) {
	return s.cache.GetInt(ctx, keyProcessed)
}

// compile-time checks
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }
