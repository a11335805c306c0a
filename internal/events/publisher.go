// Package events announces completed survey matches on MQTT.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/internal/survey"
	"github.com/saaga0h/candidate-match/pkg/mqtt"
)

// ResultEvent is the payload published for every computed match
type ResultEvent struct {
	SessionID   string            `json:"session_id"`
	CandidateID match.CandidateID `json:"candidate_id"`
	Similarity  float64           `json:"similarity"`
	Percent     int               `json:"percent"`
	Timestamp   string            `json:"timestamp"`
}

// Publisher publishes ResultEvents to survey/result/{candidate_id}
type Publisher struct {
	mqtt   mqtt.Client
	logger *slog.Logger
}

// NewPublisher creates a result publisher
func NewPublisher(client mqtt.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		mqtt:   client,
		logger: logger,
	}
}

// HandleResult publishes the session's best match
func (p *Publisher) HandleResult(ctx context.Context, session *survey.Session) error {
	if session.BestMatch == nil {
		return fmt.Errorf("session %s has no match to publish", session.ID)
	}
	if !p.mqtt.IsConnected() {
		return fmt.Errorf("mqtt not connected, dropping result for session %s", session.ID)
	}

	event := ResultEvent{
		SessionID:   session.ID.String(),
		CandidateID: session.BestMatch.CandidateID,
		Similarity:  session.BestMatch.Similarity,
		Percent:     session.BestMatch.Percent(),
		Timestamp:   session.BestMatch.ComputedAt.Format(time.RFC3339Nano),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal result event: %w", err)
	}

	topic := mqtt.ResultTopic(string(event.CandidateID))
	if err := p.mqtt.Publish(topic, 0, false, payload); err != nil {
		return err
	}

	p.logger.Debug("Published result event",
		"topic", topic,
		"session_id", event.SessionID,
		"percent", event.Percent)
	return nil
}
