package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/candidate-match/pkg/mqtt"
	"github.com/saaga0h/candidate-match/pkg/postgres"
	"github.com/saaga0h/candidate-match/pkg/redis"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusDisabled     = "disabled"

	dependencyTimeout = 2 * time.Second
)

// Checker provides health check functionality. Any dependency may be nil
// when the service runs without it.
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	logger   *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:     mqttClient,
		redis:    redisClient,
		postgres: pgClient,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres"`
}

// HandlerFunc returns 200 as long as the process is alive
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that checks every configured dependency
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), dependencyTimeout)
		defer cancel()

		services := h.Check(ctx)

		status := "healthy"
		statusCode := http.StatusOK
		if services.Redis == statusDisconnected || services.MQTT == statusDisconnected || services.Postgres == statusDisconnected {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		})
	}
}

// Check reports the state of each dependency
func (h *Checker) Check(ctx context.Context) *Services {
	services := &Services{
		Redis:    statusDisabled,
		MQTT:     statusDisabled,
		Postgres: statusDisabled,
	}

	if h.redis != nil {
		services.Redis = statusConnected
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.Warn("Redis health check failed", "error", err)
			services.Redis = statusDisconnected
		}
	}

	if h.mqtt != nil {
		services.MQTT = statusConnected
		if !h.mqtt.IsConnected() {
			services.MQTT = statusDisconnected
		}
	}

	if h.postgres != nil {
		services.Postgres = statusConnected
		pg, err := h.postgres.HealthCheck(ctx)
		if err != nil || !pg.Connected {
			h.logger.Warn("Postgres health check failed", "error", err)
			services.Postgres = statusDisconnected
		}
	}

	return services
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
