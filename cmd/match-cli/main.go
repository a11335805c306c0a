package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/saaga0h/candidate-match/internal/catalog"
	"github.com/saaga0h/candidate-match/internal/match"
)

type cliResult struct {
	Best    string      `json:"best"`
	Name    string      `json:"name"`
	Percent int         `json:"percent"`
	Ranking []cliRanked `json:"ranking"`
}

type cliRanked struct {
	CandidateID match.CandidateID `json:"candidate_id"`
	Similarity  float64           `json:"similarity"`
	Percent     int               `json:"percent"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("match-cli", pflag.ContinueOnError)
	answersFlag := fs.String("answers", "", "Comma separated answers, one per question (1-5)")
	catalogPath := fs.String("catalog", "", "Candidate catalog YAML (empty uses the built-in catalog)")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *answersFlag == "" {
		return errors.New("--answers is required")
	}

	answers, err := parseAnswers(*answersFlag)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		return err
	}

	engine := match.Default()
	best, err := engine.FindBestMatch(answers, cat.Candidates())
	if err != nil {
		return err
	}
	scores, err := engine.Rank(answers, cat.Candidates())
	if err != nil {
		return err
	}

	profile, _ := cat.Profile(best.Best.ID)
	result := cliResult{
		Best:    string(best.Best.ID),
		Name:    profile.Name,
		Percent: match.Percent(best.Similarity),
		Ranking: make([]cliRanked, len(scores)),
	}
	for i, sc := range scores {
		result.Ranking[i] = cliRanked{CandidateID: sc.CandidateID, Similarity: sc.Similarity, Percent: match.Percent(sc.Similarity)}
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Best match: %s (%s) %d%%\n", result.Name, result.Best, result.Percent)
	for i, r := range result.Ranking {
		fmt.Fprintf(out, "%d. %-8s %3d%%  %.4f\n", i+1, r.CandidateID, r.Percent, r.Similarity)
	}
	return nil
}

func parseAnswers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	answers := make([]int, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("answer %d: %q is not a number", i+1, p)
		}
		if v < 1 || v > 5 {
			return nil, fmt.Errorf("answer %d: %d outside 1..5", i+1, v)
		}
		answers = append(answers, v)
	}
	if len(answers) != match.QuestionCount {
		return nil, fmt.Errorf("expected %d answers, got %d", match.QuestionCount, len(answers))
	}
	return answers, nil
}
