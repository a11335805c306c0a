package scenario

import (
	"fmt"

	"github.com/saaga0h/candidate-match/internal/match"
)

// QuestionCount is the number of survey questions a scenario answers
const QuestionCount = match.QuestionCount

// ValidateScenario performs validation checks on a loaded scenario
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("scenario description is required")
	}

	if err := validateAnswers(s); err != nil {
		return fmt.Errorf("answers validation failed: %w", err)
	}

	if err := validateEdits(s.Edits); err != nil {
		return fmt.Errorf("edits validation failed: %w", err)
	}

	if s.SettleMillis < 0 {
		return fmt.Errorf("settle_ms cannot be negative")
	}

	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}

	return nil
}

func validValue(v int) bool {
	return v >= 1 && v <= 5
}

func validateAnswers(s *Scenario) error {
	if len(s.Answers) > 0 && s.Fill != 0 {
		return fmt.Errorf("use either 'fill' or 'answers', not both")
	}

	if len(s.Answers) == 0 {
		if !validValue(s.Fill) {
			return fmt.Errorf("fill must be between 1 and 5 (got %d)", s.Fill)
		}
		return nil
	}

	if len(s.Answers) != QuestionCount {
		return fmt.Errorf("expected %d answers, got %d", QuestionCount, len(s.Answers))
	}
	for i, v := range s.Answers {
		if !validValue(v) {
			return fmt.Errorf("answer %d: value %d outside 1..5", i, v)
		}
	}
	return nil
}

func validateEdits(edits []Edit) error {
	for i, e := range edits {
		if e.Index < 0 || e.Index >= QuestionCount {
			return fmt.Errorf("edit %d: index %d outside 0..%d", i, e.Index, QuestionCount-1)
		}
		if !validValue(e.Value) {
			return fmt.Errorf("edit %d: value %d outside 1..5", i, e.Value)
		}
		if e.Description == "" {
			return fmt.Errorf("edit %d: description is required", i)
		}
	}
	return nil
}

func validateExpectations(expectations map[string][]Expectation) error {
	if len(expectations) == 0 {
		return fmt.Errorf("at least one expectation is required")
	}

	for layer, exps := range expectations {
		if layer == "" {
			return fmt.Errorf("expectation layer name cannot be empty")
		}

		for i, exp := range exps {
			switch exp.Kind() {
			case KindPostgres:
				if exp.PostgresExpected == nil {
					return fmt.Errorf("layer %s, expectation %d: postgres_expected is required with postgres_query", layer, i)
				}
			case KindMQTT, KindRedis:
				if len(exp.Payload) == 0 {
					return fmt.Errorf("layer %s, expectation %d: payload is required", layer, i)
				}
			case KindAPI:
				switch exp.Source {
				case SourceSession, SourceResult, SourceRanking:
				case "":
					return fmt.Errorf("layer %s, expectation %d: one of source, topic, redis_session or postgres_query is required", layer, i)
				default:
					return fmt.Errorf("layer %s, expectation %d: unknown source %q", layer, i, exp.Source)
				}
				if len(exp.Payload) == 0 {
					return fmt.Errorf("layer %s, expectation %d: payload is required", layer, i)
				}
			}
		}
	}

	return nil
}
