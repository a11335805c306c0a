package executor

import (
	"sort"

	"github.com/saaga0h/candidate-match/e2e/internal/scenario"
)

// sortedLayers returns layer names in a stable order
func sortedLayers(expectations map[string][]scenario.Expectation) []string {
	layers := make([]string, 0, len(expectations))
	for layer := range expectations {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	return layers
}
