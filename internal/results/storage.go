// Package results persists completed survey matches in PostgreSQL.
//
// Each result stores the raw answers and a pgvector copy scaled by the square
// root of the question weights, so the plain L2 operator (<->) on that column
// equals the matcher's weighted Euclidean distance.
package results

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/internal/survey"
	"github.com/saaga0h/candidate-match/pkg/postgres"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS survey_results (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL UNIQUE,
		candidate_id TEXT NOT NULL,
		similarity DOUBLE PRECISION NOT NULL,
		answers SMALLINT[] NOT NULL,
		weighted_answers vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`, match.QuestionCount),
	`CREATE INDEX IF NOT EXISTS survey_results_candidate_idx ON survey_results (candidate_id)`,
}

// Record is one stored match
type Record struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	CandidateID match.CandidateID
	Similarity  float64
	Answers     []int
	CreatedAt   time.Time
}

// Neighbour is another respondent close to a given answer vector
type Neighbour struct {
	SessionID   uuid.UUID         `json:"session_id"`
	CandidateID match.CandidateID `json:"candidate_id"`
	Distance    float64           `json:"distance"`
}

// Storage reads and writes survey results
type Storage struct {
	pg      postgres.Client
	weights []float64
	logger  *slog.Logger
}

// NewStorage creates result storage that weights vectors like engine
func NewStorage(pg postgres.Client, engine *match.Engine, logger *slog.Logger) *Storage {
	return &Storage{
		pg:      pg,
		weights: engine.Weights(),
		logger:  logger,
	}
}

// EnsureSchema creates the results table if it does not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if err := s.pg.Migrate(ctx, schema); err != nil {
		return fmt.Errorf("failed to create results schema: %w", err)
	}
	return nil
}

// HandleResult stores a session's best match. A recomputed match for the
// same session replaces the earlier row.
func (s *Storage) HandleResult(ctx context.Context, session *survey.Session) error {
	if session.BestMatch == nil {
		return fmt.Errorf("session %s has no match to record", session.ID)
	}

	record := Record{
		ID:          uuid.New(),
		SessionID:   session.ID,
		CandidateID: session.BestMatch.CandidateID,
		Similarity:  session.BestMatch.Similarity,
		Answers:     session.Answers,
		CreatedAt:   session.BestMatch.ComputedAt,
	}
	return s.Save(ctx, record)
}

// Save inserts or replaces the record for its session
func (s *Storage) Save(ctx context.Context, r Record) error {
	weighted, err := s.weightedVector(r.Answers)
	if err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO survey_results (
			id, session_id, candidate_id, similarity, answers, weighted_answers, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			candidate_id = EXCLUDED.candidate_id,
			similarity = EXCLUDED.similarity,
			answers = EXCLUDED.answers,
			weighted_answers = EXCLUDED.weighted_answers,
			created_at = EXCLUDED.created_at
	`

	_, err = s.pg.Exec(ctx, query,
		r.ID,
		r.SessionID,
		string(r.CandidateID),
		r.Similarity,
		pq.Array(toInt64(r.Answers)),
		weighted,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	s.logger.Debug("Recorded survey result",
		"session_id", r.SessionID,
		"candidate_id", r.CandidateID,
		"similarity", r.Similarity)
	return nil
}

// Tally counts stored results per best-matching candidate
func (s *Storage) Tally(ctx context.Context) (map[match.CandidateID]int, error) {
	rows, err := s.pg.Query(ctx, `SELECT candidate_id, COUNT(*) FROM survey_results GROUP BY candidate_id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	tally := make(map[match.CandidateID]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		candidate, err := match.ParseCandidateID(id)
		if err != nil {
			s.logger.Warn("Skipping result for unknown candidate", "candidate_id", id)
			continue
		}
		tally[candidate] = count
	}

	return tally, rows.Err()
}

// Neighbours returns up to limit stored respondents closest to answers,
// excluding the session itself
func (s *Storage) Neighbours(ctx context.Context, sessionID uuid.UUID, answers []int, limit int) ([]Neighbour, error) {
	weighted, err := s.weightedVector(answers)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT session_id, candidate_id, weighted_answers <-> $1 AS distance
		FROM survey_results
		WHERE session_id <> $2
		ORDER BY distance ASC
		LIMIT $3
	`

	rows, err := s.pg.Query(ctx, query, weighted, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var neighbours []Neighbour
	for rows.Next() {
		var n Neighbour
		var id string
		if err := rows.Scan(&n.SessionID, &id, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		n.CandidateID = match.CandidateID(id)
		neighbours = append(neighbours, n)
	}

	return neighbours, rows.Err()
}

// weightedVector scales each answer by sqrt(weight) so that L2 distance
// between two scaled vectors is the weighted Euclidean distance
func (s *Storage) weightedVector(answers []int) (pgvector.Vector, error) {
	if len(answers) != len(s.weights) {
		return pgvector.Vector{}, fmt.Errorf("%w: got %d answers, want %d", match.ErrInvalidInput, len(answers), len(s.weights))
	}

	vec := make([]float32, len(answers))
	for i, a := range answers {
		vec[i] = float32(math.Sqrt(s.weights[i]) * float64(a))
	}
	return pgvector.NewVector(vec), nil
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
