package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/candidate-match/internal/api"
	"github.com/saaga0h/candidate-match/internal/catalog"
	"github.com/saaga0h/candidate-match/internal/events"
	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/internal/results"
	"github.com/saaga0h/candidate-match/internal/survey"
	"github.com/saaga0h/candidate-match/pkg/config"
	"github.com/saaga0h/candidate-match/pkg/health"
	"github.com/saaga0h/candidate-match/pkg/mqtt"
	"github.com/saaga0h/candidate-match/pkg/postgres"
	"github.com/saaga0h/candidate-match/pkg/redis"
)

const (
	cleanupInterval    = 5 * time.Minute
	mqttConnectTimeout = 30 * time.Second
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting candidate match server",
		"service_name", cfg.ServiceName,
		"api_port", cfg.APIPort,
		"store", cfg.StoreBackend,
		"mqtt_enabled", cfg.EnableMQTT,
		"postgres_enabled", cfg.EnablePostgres,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("Failed to load candidate catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("Candidate catalog loaded", "title", cat.Title(), "candidates", cat.Len())

	engine := match.Default()

	// Dependencies stay nil interfaces when disabled so health reports them as such
	var (
		redisClient redis.Client
		mqttClient  mqtt.Client
		pgClient    postgres.Client
		stats       api.ResultStats
		sinks       []survey.ResultSink
		store       survey.Store
	)

	switch cfg.StoreBackend {
	case config.StoreRedis:
		redisClient = redis.NewClient(cfg, logger)
		if err := redisClient.Ping(ctx); err != nil {
			logger.Error("Failed to reach Redis", "address", cfg.RedisAddress(), "error", err)
			os.Exit(1)
		}
		store = survey.NewRedisStore(redisClient, cfg.SessionTTL(), logger)
	default:
		memStore := survey.NewMemoryStore(cfg.SessionTTL())
		go runCleanup(ctx, memStore, logger)
		store = memStore
	}

	if cfg.EnablePostgres {
		pg := postgres.NewClient(cfg, logger)
		if err := pg.Connect(ctx); err != nil {
			logger.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Disconnect()

		storage := results.NewStorage(pg, engine, logger)
		if err := storage.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to prepare result schema", "error", err)
			os.Exit(1)
		}
		pgClient = pg
		stats = storage
		sinks = append(sinks, storage)
	}

	if cfg.EnableMQTT {
		mqttClient = mqtt.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Error("Failed to connect to MQTT broker", "broker", cfg.MQTTAddress(), "error", err)
			os.Exit(1)
		}
		defer mqttClient.Disconnect()
		sinks = append(sinks, events.NewPublisher(mqttClient, logger))
	}

	svc := survey.NewService(store, engine, cat.Candidates(), logger, sinks...)

	apiServer := api.NewServer(svc, cat, stats, cfg.SiteBase(), logger)
	httpServer := startServer("API", cfg.APIPort, apiServer.Handler(), logger)

	healthChecker := health.NewChecker(mqttClient, redisClient, pgClient, logger)
	healthServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	<-sigChan
	logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", "error", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis client", "error", err)
		}
	}

	logger.Info("Candidate match server shutdown complete")
}

func runCleanup(ctx context.Context, store *survey.MemoryStore, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.CleanupExpired(); n > 0 {
				logger.Debug("Expired sessions removed", "count", n)
			}
		}
	}
}

func startServer(name string, port int, handler http.Handler, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting "+name+" server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(name+" server error", "error", err)
		}
	}()

	return server
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	return startServer("health check", port, mux, logger)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
