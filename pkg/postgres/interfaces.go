package postgres

import (
	"context"
	"database/sql"
	"time"
)

// Client represents a PostgreSQL client interface for testing and abstraction
type Client interface {
	// Connect opens the pool and verifies the server is reachable
	Connect(ctx context.Context) error

	// Disconnect closes the pool
	Disconnect() error

	// Exec executes a query without returning any rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query executes a query that returns rows
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// Migrate applies schema statements in one transaction
	Migrate(ctx context.Context, statements []string) error

	// HealthCheck reports the state of the connection
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// HealthStatus represents the health of the Postgres connection
type HealthStatus struct {
	Connected     bool      `json:"connected"`
	ServerVersion string    `json:"server_version,omitempty"`
	Database      string    `json:"database"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
