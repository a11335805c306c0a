// Package match scores survey answers against candidate position vectors
// using a weighted Euclidean distance normalised to a similarity fraction.
package match

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// QuestionCount is the number of survey questions
const QuestionCount = 31

// maxSquaredDiff is (5-1)^2, the largest per-question squared difference
const maxSquaredDiff = 16.0

// ErrInvalidInput is returned for vectors of the wrong length, empty
// catalogs and unusable weight vectors
var ErrInvalidInput = errors.New("invalid input")

// DefaultWeights returns the per-question weights.
// Q1-Q24 count once, Q25 half, Q26-Q27 double and Q28-Q31 one and a half.
func DefaultWeights() []float64 {
	weights := make([]float64, 0, QuestionCount)
	for i := 0; i < 24; i++ {
		weights = append(weights, 1.0)
	}
	weights = append(weights, 0.5)
	weights = append(weights, 2.0, 2.0)
	weights = append(weights, 1.5, 1.5, 1.5, 1.5)
	return weights
}

// Engine computes similarities with a fixed weight vector. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	weights     []float64
	maxDistance float64
}

// NewEngine creates an engine for the given weights. Every weight must be
// strictly positive and there must be exactly QuestionCount of them.
func NewEngine(weights []float64) (*Engine, error) {
	if len(weights) != QuestionCount {
		return nil, fmt.Errorf("%w: got %d weights, want %d", ErrInvalidInput, len(weights), QuestionCount)
	}

	var sum float64
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %d is %v, must be positive", ErrInvalidInput, i, w)
		}
		sum += w * maxSquaredDiff
	}

	w := make([]float64, len(weights))
	copy(w, weights)

	return &Engine{
		weights:     w,
		maxDistance: math.Sqrt(sum),
	}, nil
}

var defaultEngine = mustEngine(DefaultWeights())

func mustEngine(weights []float64) *Engine {
	e, err := NewEngine(weights)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns the engine built from DefaultWeights
func Default() *Engine {
	return defaultEngine
}

// Weights returns a copy of the engine's weight vector
func (e *Engine) Weights() []float64 {
	w := make([]float64, len(e.weights))
	copy(w, e.weights)
	return w
}

// MaxDistance returns the distance between two maximally opposed vectors
func (e *Engine) MaxDistance() float64 {
	return e.maxDistance
}

// Similarity returns 1 - d/dmax where d is the weighted Euclidean distance
// between user and candidate.
//
// Both vectors are expected to hold Likert values 1..5. A 0 (unanswered) is
// not rejected; it is treated as a value and skews the result, so callers
// must check completeness first.
func (e *Engine) Similarity(user, candidate []int) (float64, error) {
	if len(user) != len(e.weights) {
		return 0, fmt.Errorf("%w: user vector has %d answers, want %d", ErrInvalidInput, len(user), len(e.weights))
	}
	if len(candidate) != len(e.weights) {
		return 0, fmt.Errorf("%w: candidate vector has %d entries, want %d", ErrInvalidInput, len(candidate), len(e.weights))
	}

	var sum float64
	for i, w := range e.weights {
		diff := float64(user[i] - candidate[i])
		sum += w * diff * diff
	}

	distance := math.Sqrt(sum)
	return 1 - distance/e.maxDistance, nil
}

// FindBestMatch scores every candidate in order and returns the one with the
// highest similarity. On ties the earliest candidate wins.
func (e *Engine) FindBestMatch(user []int, candidates []Candidate) (Result, error) {
	if len(user) != len(e.weights) {
		return Result{}, fmt.Errorf("%w: user vector has %d answers, want %d", ErrInvalidInput, len(user), len(e.weights))
	}
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("%w: no candidates to match against", ErrInvalidInput)
	}

	best := candidates[0]
	bestSimilarity, err := e.Similarity(user, best.Vector)
	if err != nil {
		return Result{}, fmt.Errorf("candidate %s: %w", best.ID, err)
	}

	for _, c := range candidates[1:] {
		similarity, err := e.Similarity(user, c.Vector)
		if err != nil {
			return Result{}, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		// strict: an equal score never displaces an earlier candidate
		if similarity > bestSimilarity {
			best = c
			bestSimilarity = similarity
		}
	}

	return Result{Best: best, Similarity: bestSimilarity}, nil
}

// Rank scores every candidate and returns them best first. Candidates with
// equal similarity keep their catalog order, so Rank(...)[0] always agrees
// with FindBestMatch.
func (e *Engine) Rank(user []int, candidates []Candidate) ([]Score, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates to match against", ErrInvalidInput)
	}

	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		similarity, err := e.Similarity(user, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		scores = append(scores, Score{CandidateID: c.ID, Similarity: similarity})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Similarity > scores[j].Similarity
	})

	return scores, nil
}

// Similarity scores user against candidate with the default weights
func Similarity(user, candidate []int) (float64, error) {
	return defaultEngine.Similarity(user, candidate)
}

// FindBestMatch matches user against candidates with the default weights
func FindBestMatch(user []int, candidates []Candidate) (Result, error) {
	return defaultEngine.FindBestMatch(user, candidates)
}

// Percent converts a similarity fraction to a whole percentage for display
func Percent(similarity float64) int {
	return int(math.Round(similarity * 100))
}
