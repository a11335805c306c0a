package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/saaga0h/candidate-match/e2e/internal/checker"
	"github.com/saaga0h/candidate-match/e2e/internal/executor"
	"github.com/saaga0h/candidate-match/e2e/internal/observer"
	"github.com/saaga0h/candidate-match/e2e/internal/reporter"
	"github.com/saaga0h/candidate-match/e2e/internal/scenario"
	"github.com/saaga0h/candidate-match/pkg/config"
	"github.com/saaga0h/candidate-match/pkg/mqtt"
	"github.com/saaga0h/candidate-match/pkg/postgres"
	"github.com/saaga0h/candidate-match/pkg/redis"
)

func main() {
	scenarioPaths := pflag.StringSlice("scenario", nil, "YAML scenario file (repeatable, required)")
	apiURL := pflag.String("api-url", "http://localhost:3000", "Match server API base URL")
	outputDir := pflag.String("output-dir", "./test-output", "Output directory for test artifacts")
	checkMQTT := pflag.Bool("check-mqtt", false, "Observe MQTT result events")
	checkRedis := pflag.Bool("check-redis", false, "Inspect sessions stored in Redis")
	checkPostgres := pflag.Bool("check-postgres", false, "Query stored results in Postgres")
	verbose := pflag.Bool("verbose", false, "Enable debug logging")
	pflag.Parse()

	if len(*scenarioPaths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		pflag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Backend addresses come from the same MATCH_ environment as the server
	cfg := config.NewConfig()
	cfg.LoadFromEnv()

	ctx := context.Background()

	var obs *observer.Observer
	if *checkMQTT {
		obs = observer.NewObserver(cfg.MQTTAddress(), mqtt.TopicResultBase+"/#", logger)
		if err := obs.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start MQTT observer: %v\n", err)
			os.Exit(1)
		}
		defer obs.Stop()
	}

	var redisClient redis.Client
	if *checkRedis {
		redisClient = redis.NewClient(cfg, logger)
		if err := redisClient.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Redis: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	var pgChecker *checker.PostgresChecker
	if *checkPostgres {
		pg := postgres.NewClient(cfg, logger)
		if err := pg.Connect(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Postgres: %v\n", err)
			os.Exit(1)
		}
		defer pg.Disconnect()
		pgChecker = checker.NewPostgresChecker(pg, logger)
	}

	runner := executor.NewRunner(executor.NewAPIClient(*apiURL), obs, redisClient, pgChecker, logger)

	failed := 0
	for _, path := range *scenarioPaths {
		passed, err := runOne(ctx, runner, obs, path, *outputDir, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Scenario %s failed to run: %v\n", path, err)
		}
		if !passed {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d scenario(s) failed\n", failed, len(*scenarioPaths))
		os.Exit(1)
	}
}

func runOne(ctx context.Context, runner *executor.Runner, obs *observer.Observer, path, outputDir string, logger *slog.Logger) (bool, error) {
	logger.Info("Loading scenario", "path", path)
	scen, err := scenario.LoadScenario(path)
	if err != nil {
		return false, err
	}

	result, timelineEvents, err := runner.Run(ctx, scen)
	if err != nil {
		return false, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	timeline := reporter.GenerateTimeline(result, timelineEvents)
	fmt.Println(timeline)

	if err := reporter.SaveTimeline(timeline, filepath.Join(outputDir, "timelines", name+".txt")); err != nil {
		logger.Warn("Failed to save timeline", "error", err)
	}
	if err := reporter.SaveSummary(result, filepath.Join(outputDir, "summaries", name+".json")); err != nil {
		logger.Warn("Failed to save summary", "error", err)
	}
	if obs != nil {
		if err := obs.SaveCapture(filepath.Join(outputDir, "captures", name+".json")); err != nil {
			logger.Warn("Failed to save MQTT capture", "error", err)
		}
	}

	return result.Passed, nil
}
