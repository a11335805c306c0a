package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/candidate-match/internal/match"
)

func vectorYAML(value int) string {
	parts := make([]string, match.QuestionCount)
	for i := range parts {
		parts[i] = fmt.Sprintf("%d", value)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t, len(match.AllCandidateIDs()), c.Len())
	assert.NotEmpty(t, c.Title())

	// every candidate id has exactly one profile
	for _, id := range match.AllCandidateIDs() {
		p, ok := c.Profile(id)
		require.True(t, ok, "missing profile for %s", id)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Color)
		assert.NotEmpty(t, p.Image)
		assert.Len(t, p.Vector, match.QuestionCount)
	}

	// ballot order
	candidates := c.Candidates()
	ids := make([]match.CandidateID, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.ID
	}
	assert.Equal(t, []match.CandidateID{match.LeeJM, match.KimMS, match.LeeJS, match.KwonYG, match.HwangKA}, ids)

	p, _ := c.Profile(match.LeeJS)
	assert.Equal(t, "기호 4번", p.Symbol())
}

func TestDefaultCatalogMatchesItself(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, cand := range c.Candidates() {
		result, err := match.FindBestMatch(cand.Vector, c.Candidates())
		require.NoError(t, err)
		assert.Equal(t, cand.ID, result.Best.ID)
		assert.Equal(t, 1.0, result.Similarity)
	}
}

func TestCatalogOrderIsBallotOrder(t *testing.T) {
	data := fmt.Sprintf(`
candidates:
  - id: HwangKA
    ballot: 7
    vector: %[1]s
  - id: KimMS
    ballot: 2
    vector: %[1]s
  - id: LeeJS
    ballot: 4
    vector: %[1]s
`, vectorYAML(3))

	c, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)

	candidates := c.Candidates()
	require.Len(t, candidates, 3)
	assert.Equal(t, match.KimMS, candidates[0].ID)
	assert.Equal(t, match.LeeJS, candidates[1].ID)
	assert.Equal(t, match.HwangKA, candidates[2].ID)

	// identical vectors tie, and the lowest ballot number wins regardless of file order
	result, err := match.FindBestMatch(candidates[0].Vector, candidates)
	require.NoError(t, err)
	assert.Equal(t, match.KimMS, result.Best.ID)
}

func TestLoadFromBytesValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "candidates: []"},
		{name: "unknown id", yaml: fmt.Sprintf("candidates:\n  - id: Nobody\n    ballot: 1\n    vector: %s\n", vectorYAML(3))},
		{name: "duplicate id", yaml: fmt.Sprintf("candidates:\n  - id: LeeJM\n    ballot: 1\n    vector: %[1]s\n  - id: LeeJM\n    ballot: 2\n    vector: %[1]s\n", vectorYAML(3))},
		{name: "duplicate ballot", yaml: fmt.Sprintf("candidates:\n  - id: LeeJM\n    ballot: 1\n    vector: %[1]s\n  - id: KimMS\n    ballot: 1\n    vector: %[1]s\n", vectorYAML(3))},
		{name: "missing ballot", yaml: fmt.Sprintf("candidates:\n  - id: LeeJM\n    vector: %s\n", vectorYAML(3))},
		{name: "short vector", yaml: "candidates:\n  - id: LeeJM\n    ballot: 1\n    vector: [1, 2, 3]\n"},
		{name: "out of range value", yaml: fmt.Sprintf("candidates:\n  - id: LeeJM\n    ballot: 1\n    vector: %s\n", vectorYAML(0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}

	_, err := LoadFromBytes([]byte("candidates: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := fmt.Sprintf("title: test\ncandidates:\n  - id: KwonYG\n    ballot: 5\n    vector: %s\n", vectorYAML(5))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Title())
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, def.Len())
}

func TestCatalogReturnsCopies(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	candidates := c.Candidates()
	candidates[0].Vector[0] = 99
	profiles := c.Profiles()
	profiles[0].Vector[1] = 99
	p, _ := c.Profile(match.LeeJM)
	p.Vector[2] = 99

	fresh, _ := c.Profile(match.LeeJM)
	assert.NotEqual(t, 99, fresh.Vector[0])
	assert.NotEqual(t, 99, fresh.Vector[1])
	assert.NotEqual(t, 99, fresh.Vector[2])
}
