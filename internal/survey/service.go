package survey

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/candidate-match/internal/match"
)

// ResultSink receives a session right after a fresh best match was stored
type ResultSink interface {
	HandleResult(ctx context.Context, s *Session) error
}

// Service drives sessions through the survey and computes the best match
// when the answers become complete
type Service struct {
	store      Store
	engine     *match.Engine
	candidates []match.Candidate
	sinks      []ResultSink
	logger     *slog.Logger

	// striped locks serialise read-modify-write cycles per session within this process
	locks [64]sync.Mutex
}

// NewService creates a survey service matching against candidates in the given order
func NewService(store Store, engine *match.Engine, candidates []match.Candidate, logger *slog.Logger, sinks ...ResultSink) *Service {
	return &Service{
		store:      store,
		engine:     engine,
		candidates: candidates,
		sinks:      sinks,
		logger:     logger,
	}
}

// Start creates a new, empty session
func (s *Service) Start(ctx context.Context) (*Session, error) {
	session := NewSession()
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Survey session started", "session_id", session.ID)
	return session, nil
}

// Session returns the current state of a session
func (s *Service) Session(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Answer records one answer. When it completes the survey the best match is
// recomputed from the full answer vector and cached on the session.
func (s *Service) Answer(ctx context.Context, id uuid.UUID, index, value int) (*Session, error) {
	var computed bool

	session, err := s.update(ctx, id, func(session *Session) error {
		prev, err := session.SetAnswer(index, value)
		if err != nil {
			return err
		}
		session.advanceAfter(index, prev)

		if !session.Complete() {
			return nil
		}
		// an unchanged answer leaves the cached match valid
		if prev == value && session.BestMatch != nil {
			return nil
		}
		if err := s.computeMatch(session); err != nil {
			return err
		}
		computed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if computed {
		s.notify(ctx, session)
	}
	return session, nil
}

// NextStep moves a session's cursor forward one question
func (s *Service) NextStep(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		session.NextStep()
		return nil
	})
}

// PrevStep moves a session's cursor back one question
func (s *Service) PrevStep(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		session.PrevStep()
		return nil
	})
}

// SetStep moves a session's cursor to a given question
func (s *Service) SetStep(ctx context.Context, id uuid.UUID, step int) (*Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		session.SetStep(step)
		return nil
	})
}

// Reset clears a session's answers and cached match so the survey can be retaken
func (s *Service) Reset(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.update(ctx, id, func(session *Session) error {
		session.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Survey session reset", "session_id", id)
	return session, nil
}

// Result returns a session with its best match. A complete session without a
// cached match has it computed now; an incomplete session is an error.
func (s *Service) Result(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Complete() {
		return nil, fmt.Errorf("%w: %d of %d answered", ErrIncomplete, session.Answered(), match.QuestionCount)
	}
	if session.BestMatch != nil {
		return session, nil
	}

	var computed bool
	session, err = s.update(ctx, id, func(session *Session) error {
		if !session.Complete() {
			return fmt.Errorf("%w: %d of %d answered", ErrIncomplete, session.Answered(), match.QuestionCount)
		}
		if session.BestMatch != nil {
			return nil
		}
		computed = true
		return s.computeMatch(session)
	})
	if err != nil {
		return nil, err
	}

	if computed {
		s.notify(ctx, session)
	}
	return session, nil
}

// Ranking scores every candidate against a complete session's answers, best first
func (s *Service) Ranking(ctx context.Context, id uuid.UUID) ([]match.Score, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Complete() {
		return nil, fmt.Errorf("%w: %d of %d answered", ErrIncomplete, session.Answered(), match.QuestionCount)
	}
	return s.engine.Rank(session.Answers, s.candidates)
}

func (s *Service) computeMatch(session *Session) error {
	result, err := s.engine.FindBestMatch(session.Answers, s.candidates)
	if err != nil {
		return fmt.Errorf("failed to match session %s: %w", session.ID, err)
	}

	session.BestMatch = &MatchResult{
		CandidateID: result.Best.ID,
		Similarity:  result.Similarity,
		ComputedAt:  time.Now().UTC(),
	}

	s.logger.Info("Best match computed",
		"session_id", session.ID,
		"candidate_id", result.Best.ID,
		"similarity", result.Similarity)

	return nil
}

// update applies fn to a fresh copy of the session and saves it. Nothing is
// saved when fn fails.
func (s *Service) update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return session, nil
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	return &s.locks[int(id[0])%len(s.locks)]
}

// notify hands a freshly matched session to every sink. Sink failures are
// logged; the stored match stands.
func (s *Service) notify(ctx context.Context, session *Session) {
	for _, sink := range s.sinks {
		if err := sink.HandleResult(ctx, session.Clone()); err != nil {
			s.logger.Warn("Result sink failed",
				"session_id", session.ID,
				"sink", fmt.Sprintf("%T", sink),
				"error", err)
		}
	}
}
