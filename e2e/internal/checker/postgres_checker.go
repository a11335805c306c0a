package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/saaga0h/candidate-match/pkg/postgres"
)

// PostgresChecker validates database state
type PostgresChecker struct {
	client postgres.Client
	logger *slog.Logger
}

// NewPostgresChecker creates a checker on a connected client
func NewPostgresChecker(client postgres.Client, logger *slog.Logger) *PostgresChecker {
	return &PostgresChecker{client: client, logger: logger}
}

// CheckQuery runs query, which must return one column, and matches the first
// row against expected
func (p *PostgresChecker) CheckQuery(ctx context.Context, query string, sessionID string, expected interface{}) (interface{}, error) {
	query = Expand(query, sessionID)
	p.logger.Debug("Executing query", "query", query)

	rows, err := p.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		return nil, fmt.Errorf("query returned no rows")
	}

	var result interface{}
	if err := rows.Scan(&result); err != nil {
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}
	result = normalize(result)

	p.logger.Debug("Query result", "actual", result, "expected", expected)

	if ok, reason := MatchesExpectation(result, ExpandPayload(expected, sessionID)); !ok {
		return result, fmt.Errorf("mismatch: %s", reason)
	}
	return result, nil
}

// normalize turns driver byte slices into numbers or strings
func normalize(v interface{}) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		return f
	}
	return string(b)
}
