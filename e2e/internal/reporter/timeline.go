package reporter

import (
	"fmt"
	"strings"

	"github.com/saaga0h/candidate-match/e2e/internal/scenario"
)

// TimelineEvent is one line of the run timeline
type TimelineEvent struct {
	Elapsed     float64
	Layer       string
	Description string
	Success     bool // ignored unless IsCheck
	IsCheck     bool
}

// GenerateTimeline creates a human-readable timeline of a run
func GenerateTimeline(result *scenario.TestResult, events []TimelineEvent) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== Scenario: %s ===\n", result.Scenario.Name)
	fmt.Fprintf(&sb, "Session:  %s\n", result.SessionID)
	fmt.Fprintf(&sb, "Duration: %.2fs\n\n", result.EndTime.Sub(result.StartTime).Seconds())

	for _, e := range events {
		icon := "→"
		if e.IsCheck {
			icon = "✓"
			if !e.Success {
				icon = "✗"
			}
		}
		fmt.Fprintf(&sb, "[%7.2fs] %s %-10s %s\n", e.Elapsed, icon, e.Layer, e.Description)
	}

	failed := 0
	for _, er := range result.Expectations {
		if er.Passed {
			continue
		}
		if failed == 0 {
			sb.WriteString("\n=== Failures ===\n")
		}
		failed++
		fmt.Fprintf(&sb, "  ✗ %s / %s: %s\n", er.Layer, er.Expectation.Describe(), er.Reason)
	}

	status := "ALL PASSED"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("%d FAILED", result.FailedCount)
	}
	fmt.Fprintf(&sb, "\nPassed: %d  Failed: %d  Status: %s\n", result.PassedCount, result.FailedCount, status)

	return sb.String()
}

// SaveTimeline writes a generated timeline to filename
func SaveTimeline(timeline, filename string) error {
	return writeFile(filename, []byte(timeline))
}
