package survey

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/pkg/redis"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeRedis is an in-memory redis.Client
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", redis.ErrKeyNotFound, key)
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }
func (f *fakeRedis) Close() error                   { return nil }

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  NewRedisStore(newFakeRedis(), time.Hour, testLogger()),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewSession()
			require.NoError(t, store.Create(ctx, s))

			_, err := s.SetAnswer(3, 4)
			require.NoError(t, err)
			s.BestMatch = &MatchResult{CandidateID: match.LeeJS, Similarity: 0.75}
			require.NoError(t, store.Save(ctx, s))

			got, err := store.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, s.ID, got.ID)
			assert.Equal(t, s.Answers, got.Answers)
			require.NotNil(t, got.BestMatch)
			assert.Equal(t, match.LeeJS, got.BestMatch.CandidateID)
			assert.Equal(t, 0.75, got.BestMatch.Similarity)

			require.NoError(t, store.Delete(ctx, s.ID))
			_, err = store.Get(ctx, s.ID)
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestStoreHandsOutCopies(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewSession()
			require.NoError(t, store.Create(ctx, s))

			first, err := store.Get(ctx, s.ID)
			require.NoError(t, err)
			first.Answers[0] = 5

			second, err := store.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, Unanswered, second.Answers[0])
		})
	}
}

func TestStoreSaveUnknownSession(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(context.Background(), NewSession())
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	s := NewSession()
	require.NoError(t, store.Create(ctx, s))

	now = now.Add(30 * time.Second)
	_, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	// saving slides the expiry forward
	require.NoError(t, store.Save(ctx, s))

	now = now.Add(45 * time.Second)
	_, err = store.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, 1, store.CleanupExpired())
	assert.Equal(t, 0, store.CleanupExpired())
}

func TestRedisStoreUsesSessionKeyAndTTL(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, 90*time.Minute, testLogger())

	s := NewSession()
	require.NoError(t, store.Create(context.Background(), s))

	key := redis.SessionKey(s.ID.String())
	assert.Contains(t, fake.data, key)
	assert.Equal(t, 90*time.Minute, fake.ttls[key])
	assert.Equal(t, "survey:session:"+s.ID.String(), key)
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, time.Hour, testLogger())

	s := NewSession()
	fake.data[redis.SessionKey(s.ID.String())] = "{not json"

	_, err := store.Get(context.Background(), s.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
