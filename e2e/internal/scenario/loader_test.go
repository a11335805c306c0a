package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: all-neutral
description: Neutral answers everywhere
fill: 3
edits:
  - index: 25
    value: 5
    description: Strong view on question 26
settle_ms: 200
expectations:
  api:
    - source: result
      payload:
        percent: ">=50"
  events:
    - topic: survey/result/LeeJS
      payload:
        session_id: "{{session_id}}"
  storage:
    - postgres_query: "SELECT count(*) FROM survey_results WHERE session_id = '{{session_id}}'"
      postgres_expected: 1
`

func TestLoadScenarioFromBytes(t *testing.T) {
	s, err := LoadScenarioFromBytes([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "all-neutral", s.Name)
	assert.Equal(t, 200, s.SettleMillis)
	require.Len(t, s.Edits, 1)
	assert.Equal(t, 25, s.Edits[0].Index)

	answers := s.InitialAnswers()
	require.Len(t, answers, QuestionCount)
	for _, v := range answers {
		assert.Equal(t, 3, v)
	}

	assert.Equal(t, KindAPI, s.Expectations["api"][0].Kind())
	assert.Equal(t, KindMQTT, s.Expectations["events"][0].Kind())
	assert.Equal(t, KindPostgres, s.Expectations["storage"][0].Kind())
}

func TestValidateScenario(t *testing.T) {
	apiExpectation := map[string][]Expectation{
		"api": {{Source: SourceResult, Payload: map[string]interface{}{"percent": 100}}},
	}

	tests := []struct {
		name    string
		s       Scenario
		wantErr string
	}{
		{
			name: "valid fill",
			s:    Scenario{Name: "a", Description: "b", Fill: 5, Expectations: apiExpectation},
		},
		{
			name:    "missing name",
			s:       Scenario{Description: "b", Fill: 5, Expectations: apiExpectation},
			wantErr: "name is required",
		},
		{
			name:    "fill out of range",
			s:       Scenario{Name: "a", Description: "b", Fill: 7, Expectations: apiExpectation},
			wantErr: "fill must be between 1 and 5",
		},
		{
			name:    "fill and answers",
			s:       Scenario{Name: "a", Description: "b", Fill: 3, Answers: []int{1}, Expectations: apiExpectation},
			wantErr: "not both",
		},
		{
			name:    "short answers",
			s:       Scenario{Name: "a", Description: "b", Answers: []int{1, 2, 3}, Expectations: apiExpectation},
			wantErr: "expected 31 answers",
		},
		{
			name: "edit out of range",
			s: Scenario{Name: "a", Description: "b", Fill: 3, Expectations: apiExpectation,
				Edits: []Edit{{Index: 31, Value: 3, Description: "x"}}},
			wantErr: "index 31",
		},
		{
			name:    "no expectations",
			s:       Scenario{Name: "a", Description: "b", Fill: 3},
			wantErr: "at least one expectation",
		},
		{
			name: "unknown source",
			s: Scenario{Name: "a", Description: "b", Fill: 3, Expectations: map[string][]Expectation{
				"api": {{Source: "stats", Payload: map[string]interface{}{"total": 1}}},
			}},
			wantErr: "unknown source",
		},
		{
			name: "postgres without expected",
			s: Scenario{Name: "a", Description: "b", Fill: 3, Expectations: map[string][]Expectation{
				"db": {{PostgresQuery: "SELECT 1"}},
			}},
			wantErr: "postgres_expected is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScenario(&tt.s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should contain %q", err, tt.wantErr)
		})
	}
}

func TestBundledScenariosLoad(t *testing.T) {
	paths, err := filepath.Glob("../../scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Len(t, s.InitialAnswers(), QuestionCount)
		})
	}
}
