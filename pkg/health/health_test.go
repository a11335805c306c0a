package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/candidate-match/pkg/postgres"
)

type stubRedis struct{ pingErr error }

func (s *stubRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (s *stubRedis) Get(ctx context.Context, key string) (string, error)             { return "", nil }
func (s *stubRedis) Del(ctx context.Context, keys ...string) error                   { return nil }
func (s *stubRedis) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (s *stubRedis) Ping(ctx context.Context) error                                  { return s.pingErr }
func (s *stubRedis) Close() error                                                    { return nil }

type stubMQTT struct{ connected bool }

func (s *stubMQTT) Connect(ctx context.Context) error                                   { return nil }
func (s *stubMQTT) Disconnect()                                                         {}
func (s *stubMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error { return nil }
func (s *stubMQTT) IsConnected() bool                                                   { return s.connected }

type stubPostgres struct{ connected bool }

func (s *stubPostgres) Connect(ctx context.Context) error { return nil }
func (s *stubPostgres) Disconnect() error                 { return nil }
func (s *stubPostgres) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (s *stubPostgres) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (s *stubPostgres) Migrate(ctx context.Context, statements []string) error { return nil }
func (s *stubPostgres) HealthCheck(ctx context.Context) (*postgres.HealthStatus, error) {
	return &postgres.HealthStatus{Connected: s.connected}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHandlerFunc(t *testing.T) {
	checker := NewChecker(nil, nil, nil, testLogger())

	rec := httptest.NewRecorder()
	checker.HandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Services)
}

func TestDetailedHandlerFunc(t *testing.T) {
	tests := []struct {
		name       string
		checker    *Checker
		wantCode   int
		wantStatus string
		want       Services
	}{
		{
			name:       "nothing configured",
			checker:    NewChecker(nil, nil, nil, testLogger()),
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			want:       Services{Redis: "disabled", MQTT: "disabled", Postgres: "disabled"},
		},
		{
			name:       "all connected",
			checker:    NewChecker(&stubMQTT{connected: true}, &stubRedis{}, &stubPostgres{connected: true}, testLogger()),
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			want:       Services{Redis: "connected", MQTT: "connected", Postgres: "connected"},
		},
		{
			name:       "redis down",
			checker:    NewChecker(&stubMQTT{connected: true}, &stubRedis{pingErr: errors.New("refused")}, nil, testLogger()),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			want:       Services{Redis: "disconnected", MQTT: "connected", Postgres: "disabled"},
		},
		{
			name:       "postgres down",
			checker:    NewChecker(nil, nil, &stubPostgres{connected: false}, testLogger()),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			want:       Services{Redis: "disabled", MQTT: "disabled", Postgres: "disconnected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.checker.DetailedHandlerFunc()(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.NotNil(t, resp.Services)
			assert.Equal(t, tt.want, *resp.Services)
		})
	}
}
