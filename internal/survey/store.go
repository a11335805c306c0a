package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/candidate-match/pkg/redis"
)

// Store persists sessions. Implementations return copies, so a session
// fetched by one request is never shared with another.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store whose sessions expire after ttl of inactivity
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.sessions[s.ID] = memoryEntry{session: s.Clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return entry.session.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[s.ID]
	if !ok || m.now().After(entry.expiresAt) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	m.sessions[s.ID] = memoryEntry{session: s.Clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// CleanupExpired drops expired sessions and returns how many were removed
func (m *MemoryStore) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RedisStore keeps sessions as JSON strings in Redis with a sliding TTL
type RedisStore struct {
	redis  redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	return r.put(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	raw, err := r.redis.Get(ctx, redis.SessionKey(id.String()))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if _, err := r.Get(ctx, s.ID); err != nil {
		return err
	}
	return r.put(ctx, s)
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.redis.Del(ctx, redis.SessionKey(id.String()))
}

func (r *RedisStore) put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}

	if err := r.redis.Set(ctx, redis.SessionKey(s.ID.String()), data, r.ttl); err != nil {
		return err
	}

	r.logger.Debug("Stored session", "session_id", s.ID, "answered", s.Answered())
	return nil
}
