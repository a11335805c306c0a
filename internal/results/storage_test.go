package results

import (
	"context"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/internal/survey"
	"github.com/saaga0h/candidate-match/pkg/config"
	"github.com/saaga0h/candidate-match/pkg/postgres"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func uniform(value int) []int {
	v := make([]int, match.QuestionCount)
	for i := range v {
		v[i] = value
	}
	return v
}

func TestWeightedVectorDistanceMatchesEngine(t *testing.T) {
	s := NewStorage(nil, match.Default(), testLogger())

	a := uniform(3)
	b := uniform(3)
	b[0], b[25], b[24], b[30] = 5, 1, 4, 2

	va, err := s.weightedVector(a)
	require.NoError(t, err)
	vb, err := s.weightedVector(b)
	require.NoError(t, err)

	var sum float64
	for i := range va.Slice() {
		d := float64(va.Slice()[i]) - float64(vb.Slice()[i])
		sum += d * d
	}
	l2 := math.Sqrt(sum)

	sim, err := match.Similarity(a, b)
	require.NoError(t, err)
	engineDistance := (1 - sim) * match.Default().MaxDistance()

	assert.InDelta(t, engineDistance, l2, 1e-4)
}

func TestWeightedVectorRejectsBadLength(t *testing.T) {
	s := NewStorage(nil, match.Default(), testLogger())
	_, err := s.weightedVector(make([]int, 30))
	assert.ErrorIs(t, err, match.ErrInvalidInput)
}

func TestHandleResultWithoutMatch(t *testing.T) {
	s := NewStorage(nil, match.Default(), testLogger())
	err := s.HandleResult(context.Background(), survey.NewSession())
	assert.Error(t, err)
}

// setupTestDB connects to the Postgres described by MATCH_POSTGRES_* and
// requires the pgvector extension to be installable.
func setupTestDB(t *testing.T) *postgres.PostgresClient {
	if os.Getenv("MATCH_TEST_POSTGRES") == "" {
		t.Skip("Integration test - set MATCH_TEST_POSTGRES=1 with a PostgreSQL + pgvector instance")
	}

	cfg := config.NewConfig()
	cfg.LoadFromEnv()

	client := postgres.NewClient(cfg, testLogger())
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestSaveTallyAndNeighbours(t *testing.T) {
	client := setupTestDB(t)
	defer client.Disconnect()

	ctx := context.Background()
	storage := NewStorage(client, match.Default(), testLogger())
	require.NoError(t, storage.EnsureSchema(ctx))
	_, err := client.Exec(ctx, `TRUNCATE survey_results`)
	require.NoError(t, err)

	near := uuid.New()
	far := uuid.New()
	self := uuid.New()

	require.NoError(t, storage.Save(ctx, Record{ID: uuid.New(), SessionID: near, CandidateID: match.LeeJS, Similarity: 0.9, Answers: uniform(3)}))
	require.NoError(t, storage.Save(ctx, Record{ID: uuid.New(), SessionID: far, CandidateID: match.KimMS, Similarity: 0.8, Answers: uniform(1)}))
	require.NoError(t, storage.Save(ctx, Record{ID: uuid.New(), SessionID: self, CandidateID: match.LeeJS, Similarity: 0.7, Answers: uniform(4)}))

	// replacing a session's row keeps one row per session
	require.NoError(t, storage.Save(ctx, Record{ID: uuid.New(), SessionID: far, CandidateID: match.HwangKA, Similarity: 0.85, Answers: uniform(1)}))

	tally, err := storage.Tally(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tally[match.LeeJS])
	assert.Equal(t, 1, tally[match.HwangKA])
	assert.Equal(t, 0, tally[match.KimMS])

	neighbours, err := storage.Neighbours(ctx, self, uniform(4), 5)
	require.NoError(t, err)
	require.Len(t, neighbours, 2)
	assert.Equal(t, near, neighbours[0].SessionID)
	assert.Equal(t, far, neighbours[1].SessionID)
	assert.Less(t, neighbours[0].Distance, neighbours[1].Distance)
}
