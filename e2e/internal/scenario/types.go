package scenario

import "time"

// Expectation kinds
const (
	KindAPI      = "api"
	KindMQTT     = "mqtt"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

// API documents an expectation can be checked against
const (
	SourceSession = "session"
	SourceResult  = "result"
	SourceRanking = "ranking"
)

// Scenario represents a complete E2E survey run
type Scenario struct {
	Name         string                   `yaml:"name"`
	Description  string                   `yaml:"description"`
	Fill         int                      `yaml:"fill,omitempty"`    // answer every question with this value
	Answers      []int                    `yaml:"answers,omitempty"` // or give all answers explicitly
	Edits        []Edit                   `yaml:"edits,omitempty"`
	SettleMillis int                      `yaml:"settle_ms,omitempty"`
	Expectations map[string][]Expectation `yaml:"expectations"`
}

// Edit changes one answer after the initial pass
type Edit struct {
	Index       int    `yaml:"index"`
	Value       int    `yaml:"value"`
	Description string `yaml:"description"`
}

// Expectation represents an expected outcome to verify.
// {{session_id}} in Topic or PostgresQuery is replaced with the run's session.
type Expectation struct {
	Source  string                 `yaml:"source,omitempty"`
	Topic   string                 `yaml:"topic,omitempty"`
	Payload map[string]interface{} `yaml:"payload,omitempty"` // supports ~regex~ and >=n matchers

	RedisSession bool `yaml:"redis_session,omitempty"`

	PostgresQuery    string      `yaml:"postgres_query,omitempty"`
	PostgresExpected interface{} `yaml:"postgres_expected,omitempty"`
}

// Kind reports which backend the expectation is checked against
func (e Expectation) Kind() string {
	switch {
	case e.PostgresQuery != "":
		return KindPostgres
	case e.RedisSession:
		return KindRedis
	case e.Topic != "":
		return KindMQTT
	default:
		return KindAPI
	}
}

// Describe returns a short label for reports
func (e Expectation) Describe() string {
	switch e.Kind() {
	case KindPostgres:
		return "postgres query"
	case KindRedis:
		return "redis session"
	case KindMQTT:
		return e.Topic
	default:
		return "GET " + e.Source
	}
}

// TestResult represents the outcome of running a scenario
type TestResult struct {
	Scenario     *Scenario           `json:"scenario"`
	SessionID    string              `json:"session_id"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	Passed       bool                `json:"passed"`
	PassedCount  int                 `json:"passed_count"`
	FailedCount  int                 `json:"failed_count"`
	Expectations []ExpectationResult `json:"expectations"`
}

// ExpectationResult represents the result of checking a single expectation
type ExpectationResult struct {
	Layer       string      `json:"layer"`
	Expectation Expectation `json:"expectation"`
	Passed      bool        `json:"passed"`
	Reason      string      `json:"reason,omitempty"`
	Actual      interface{} `json:"actual,omitempty"`
}
