// Package executor plays a scenario against a running match server.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/candidate-match/e2e/internal/checker"
	"github.com/saaga0h/candidate-match/e2e/internal/observer"
	"github.com/saaga0h/candidate-match/e2e/internal/reporter"
	"github.com/saaga0h/candidate-match/e2e/internal/scenario"
	"github.com/saaga0h/candidate-match/pkg/redis"
)

// Runner orchestrates test scenario execution. observer, redis and postgres
// are optional; expectations needing a missing backend fail.
type Runner struct {
	api      *APIClient
	observer *observer.Observer
	redis    redis.Client
	postgres *checker.PostgresChecker
	logger   *slog.Logger
}

// NewRunner creates a new test runner
func NewRunner(api *APIClient, obs *observer.Observer, redisClient redis.Client, pg *checker.PostgresChecker, logger *slog.Logger) *Runner {
	return &Runner{
		api:      api,
		observer: obs,
		redis:    redisClient,
		postgres: pg,
		logger:   logger,
	}
}

// Run executes a test scenario
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Info("Starting scenario", "name", s.Name, "description", s.Description)

	startTime := time.Now()
	var timeline []reporter.TimelineEvent
	mark := func(layer, desc string, isCheck, success bool) {
		timeline = append(timeline, reporter.TimelineEvent{
			Elapsed:     time.Since(startTime).Seconds(),
			Layer:       layer,
			Description: desc,
			IsCheck:     isCheck,
			Success:     success,
		})
	}

	sessionID, err := r.api.StartSession(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start session: %w", err)
	}
	mark("survey", "session "+sessionID+" started", false, false)

	for i, v := range s.InitialAnswers() {
		if err := r.api.Answer(ctx, sessionID, i, v); err != nil {
			return nil, nil, fmt.Errorf("failed to answer question %d: %w", i, err)
		}
	}
	mark("survey", fmt.Sprintf("answered %d questions", scenario.QuestionCount), false, false)

	for _, e := range s.Edits {
		if err := r.api.Answer(ctx, sessionID, e.Index, e.Value); err != nil {
			return nil, nil, fmt.Errorf("failed to edit question %d: %w", e.Index, err)
		}
		mark("survey", fmt.Sprintf("q%d = %d (%s)", e.Index, e.Value, e.Description), false, false)
	}

	if s.SettleMillis > 0 {
		settle := time.Duration(s.SettleMillis) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(settle):
		}
		mark("wait", fmt.Sprintf("settled %s", settle), false, false)
	}

	var results []scenario.ExpectationResult
	for _, layer := range sortedLayers(s.Expectations) {
		for _, exp := range s.Expectations[layer] {
			passed, reason, actual := r.check(ctx, exp, sessionID)
			results = append(results, scenario.ExpectationResult{
				Layer:       layer,
				Expectation: exp,
				Passed:      passed,
				Reason:      reason,
				Actual:      actual,
			})
			mark(layer, exp.Describe(), true, passed)

			if passed {
				r.logger.Info("Expectation passed", "layer", layer, "check", exp.Describe())
			} else {
				r.logger.Warn("Expectation failed", "layer", layer, "check", exp.Describe(), "reason", reason)
			}
		}
	}

	result := &scenario.TestResult{
		Scenario:     s,
		SessionID:    sessionID,
		StartTime:    startTime,
		EndTime:      time.Now(),
		Expectations: results,
	}
	for _, er := range results {
		if er.Passed {
			result.PassedCount++
		} else {
			result.FailedCount++
		}
	}
	result.Passed = result.FailedCount == 0

	return result, timeline, nil
}

func (r *Runner) check(ctx context.Context, exp scenario.Expectation, sessionID string) (bool, string, interface{}) {
	switch exp.Kind() {
	case scenario.KindPostgres:
		if r.postgres == nil {
			return false, "postgres checks are disabled", nil
		}
		actual, err := r.postgres.CheckQuery(ctx, exp.PostgresQuery, sessionID, exp.PostgresExpected)
		if err != nil {
			return false, err.Error(), actual
		}
		return true, "", actual

	case scenario.KindRedis:
		if r.redis == nil {
			return false, "redis checks are disabled", nil
		}
		return checker.CheckRedisSession(ctx, r.redis, exp, sessionID)

	case scenario.KindMQTT:
		if r.observer == nil {
			return false, "mqtt checks are disabled", nil
		}
		return checker.CheckMessages(exp, sessionID, r.observer.Messages())

	default:
		resource := ""
		if exp.Source != scenario.SourceSession {
			resource = exp.Source
		}
		doc, err := r.api.Document(ctx, sessionID, resource)
		if err != nil {
			return false, err.Error(), nil
		}
		return checker.CheckDocument(exp, sessionID, doc)
	}
}
