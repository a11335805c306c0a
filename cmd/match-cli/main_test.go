package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/candidate-match/internal/catalog"
	"github.com/saaga0h/candidate-match/internal/match"
)

func joinAnswers(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(rune('0' + v))
	}
	return strings.Join(parts, ",")
}

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "all threes", input: strings.TrimSuffix(strings.Repeat("3,", match.QuestionCount), ",")},
		{name: "spaces allowed", input: strings.TrimSuffix(strings.Repeat(" 2 ,", match.QuestionCount), ",")},
		{name: "too few", input: "1,2,3", wantErr: true},
		{name: "out of range", input: strings.TrimSuffix(strings.Repeat("6,", match.QuestionCount), ","), wantErr: true},
		{name: "not a number", input: strings.TrimSuffix(strings.Repeat("x,", match.QuestionCount), ","), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswers(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, match.QuestionCount)
		})
	}
}

func TestRunJSON(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	lee, ok := cat.Profile(match.LeeJS)
	require.True(t, ok)

	var out bytes.Buffer
	require.NoError(t, run([]string{"--answers", joinAnswers(lee.Vector), "--json"}, &out))

	var result cliResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "LeeJS", result.Best)
	assert.Equal(t, lee.Name, result.Name)
	assert.Equal(t, 100, result.Percent)
	assert.Len(t, result.Ranking, cat.Len())
}

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	answers := strings.TrimSuffix(strings.Repeat("3,", match.QuestionCount), ",")
	require.NoError(t, run([]string{"--answers", answers}, &out))
	assert.Contains(t, out.String(), "Best match:")
}

func TestRunRequiresAnswers(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
}
