package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadScenario loads a scenario from a YAML file
func LoadScenario(filepath string) (*Scenario, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes loads a scenario from byte data
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	return &scenario, nil
}

// InitialAnswers returns the answers submitted before any edits
func (s *Scenario) InitialAnswers() []int {
	if len(s.Answers) > 0 {
		out := make([]int, len(s.Answers))
		copy(out, s.Answers)
		return out
	}
	out := make([]int, QuestionCount)
	for i := range out {
		out[i] = s.Fill
	}
	return out
}
