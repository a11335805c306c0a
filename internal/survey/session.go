// Package survey holds per-session survey state and runs the match once a
// session's answers are complete.
package survey

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/candidate-match/internal/match"
)

const (
	// Unanswered marks a question the respondent has not answered yet
	Unanswered = 0

	minAnswer = 1
	maxAnswer = 5

	// PageSize is the number of questions shown per page
	PageSize = 6
	// lastPage holds every remaining question from lastPageStart on
	lastPage      = 4
	lastPageStart = lastPage * PageSize
)

var (
	// ErrInvalidAnswer is returned for an out-of-range question index or value
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrIncomplete is returned when a result is requested before every question is answered
	ErrIncomplete = errors.New("survey incomplete")
	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)

// MatchResult is the best match cached on a session
type MatchResult struct {
	CandidateID match.CandidateID `json:"candidate_id"`
	Similarity  float64           `json:"similarity"`
	ComputedAt  time.Time         `json:"computed_at"`
}

// Percent returns the similarity as a rounded percentage
func (m MatchResult) Percent() int {
	return match.Percent(m.Similarity)
}

// Session is one respondent's survey state. A Session is not safe for
// concurrent use; stores hand out independent copies.
type Session struct {
	ID          uuid.UUID    `json:"id"`
	Answers     []int        `json:"answers"`
	CurrentStep int          `json:"current_step"`
	BestMatch   *MatchResult `json:"best_match,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSession creates a session with every answer unanswered
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Answers:   make([]int, match.QuestionCount),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = append([]int(nil), s.Answers...)
	if s.BestMatch != nil {
		m := *s.BestMatch
		c.BestMatch = &m
	}
	return &c
}

// SetAnswer records value (1..5) for question index (0-based). Other answers
// are left untouched. It returns the previous value.
func (s *Session) SetAnswer(index, value int) (int, error) {
	if index < 0 || index >= len(s.Answers) {
		return 0, fmt.Errorf("%w: question index %d outside 0..%d", ErrInvalidAnswer, index, len(s.Answers)-1)
	}
	if value < minAnswer || value > maxAnswer {
		return 0, fmt.Errorf("%w: value %d outside %d..%d", ErrInvalidAnswer, value, minAnswer, maxAnswer)
	}

	prev := s.Answers[index]
	s.Answers[index] = value
	s.UpdatedAt = time.Now().UTC()
	return prev, nil
}

// Answered returns how many questions have an answer
func (s *Session) Answered() int {
	n := 0
	for _, v := range s.Answers {
		if v != Unanswered {
			n++
		}
	}
	return n
}

// Complete reports whether every question has been answered
func (s *Session) Complete() bool {
	return len(s.Answers) == match.QuestionCount && s.Answered() == len(s.Answers)
}

// Started reports whether any question has been answered
func (s *Session) Started() bool {
	return s.Answered() > 0
}

// Reset clears all answers, the step and the cached match
func (s *Session) Reset() {
	s.Answers = make([]int, match.QuestionCount)
	s.CurrentStep = 0
	s.BestMatch = nil
	s.UpdatedAt = time.Now().UTC()
}

// SetStep moves the cursor to question step, clamped to the question range
func (s *Session) SetStep(step int) {
	s.CurrentStep = clampStep(step)
}

// NextStep moves the cursor forward one question
func (s *Session) NextStep() {
	s.SetStep(s.CurrentStep + 1)
}

// PrevStep moves the cursor back one question
func (s *Session) PrevStep() {
	s.SetStep(s.CurrentStep - 1)
}

func clampStep(step int) int {
	if step < 0 {
		return 0
	}
	if step > match.QuestionCount-1 {
		return match.QuestionCount - 1
	}
	return step
}

// Page describes the slice of questions shown together
type Page struct {
	Number int `json:"number"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// PageFor returns the page holding question step. Pages hold PageSize
// questions, except the last one which holds every question from 24 on.
func PageFor(step int) Page {
	step = clampStep(step)
	number := step / PageSize
	if number >= lastPage {
		return Page{Number: lastPage, Start: lastPageStart, End: match.QuestionCount}
	}
	return Page{Number: number, Start: number * PageSize, End: number*PageSize + PageSize}
}

// Page returns the page holding the current step
func (s *Session) Page() Page {
	return PageFor(s.CurrentStep)
}

// pageFilled reports whether every question on page p is answered
func (s *Session) pageFilled(p Page) bool {
	for _, v := range s.Answers[p.Start:p.End] {
		if v == Unanswered {
			return false
		}
	}
	return true
}

// advanceAfter moves the cursor after question index was answered: to the
// next page once the current page is filled, otherwise to the following
// question if this one had not been answered before.
func (s *Session) advanceAfter(index, prev int) {
	p := PageFor(index)
	if s.pageFilled(p) && p.End < match.QuestionCount {
		s.CurrentStep = p.End
		return
	}
	if prev == Unanswered && index+1 < match.QuestionCount {
		s.CurrentStep = index + 1
	}
}
