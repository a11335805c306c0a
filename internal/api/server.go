// Package api exposes the survey over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/candidate-match/internal/catalog"
	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/internal/results"
	"github.com/saaga0h/candidate-match/internal/survey"
)

const (
	defaultNeighbourLimit = 5
	maxNeighbourLimit     = 50
	maxBodyBytes          = 1 << 12
)

var errStatsDisabled = errors.New("result statistics are not enabled")

// ResultStats answers aggregate questions about stored results
type ResultStats interface {
	Tally(ctx context.Context) (map[match.CandidateID]int, error)
	Neighbours(ctx context.Context, sessionID uuid.UUID, answers []int, limit int) ([]results.Neighbour, error)
}

// Server serves the survey API
type Server struct {
	survey  *survey.Service
	catalog *catalog.Catalog
	stats   ResultStats
	site    string
	logger  *slog.Logger
}

// NewServer creates an API server. stats may be nil when results are not persisted.
func NewServer(svc *survey.Service, cat *catalog.Catalog, stats ResultStats, site string, logger *slog.Logger) *Server {
	return &Server{
		survey:  svc,
		catalog: cat,
		stats:   stats,
		site:    site,
		logger:  logger,
	}
}

// Handler returns the API routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.handleStart)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /api/sessions/{id}/answers/{index}", s.handleAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/next", s.handleNext)
	mux.HandleFunc("POST /api/sessions/{id}/prev", s.handlePrev)
	mux.HandleFunc("PUT /api/sessions/{id}/step", s.handleSetStep)
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /api/sessions/{id}/result", s.handleResult)
	mux.HandleFunc("GET /api/sessions/{id}/ranking", s.handleRanking)
	mux.HandleFunc("GET /api/sessions/{id}/neighbours", s.handleNeighbours)
	mux.HandleFunc("GET /api/candidates", s.handleCandidates)
	mux.HandleFunc("GET /api/candidates/{id}", s.handleCandidate)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return s.logRequests(mux)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	session, err := s.survey.Start(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newSessionView(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	session, err := s.survey.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: question index %q is not a number", survey.ErrInvalidAnswer, r.PathValue("index")))
		return
	}

	var body struct {
		Value int `json:"value"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	session, err := s.survey.Answer(r.Context(), id, index, body.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, s.survey.NextStep)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, s.survey.PrevStep)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, s.survey.Reset)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*survey.Session, error)) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	session, err := fn(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleSetStep(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var body struct {
		Step int `json:"step"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	session, err := s.survey.SetStep(r.Context(), id, body.Step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	session, err := s.survey.Result(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	profile, found := s.catalog.Profile(session.BestMatch.CandidateID)
	if !found {
		s.writeError(w, r, fmt.Errorf("matched candidate %s missing from catalog", session.BestMatch.CandidateID))
		return
	}

	ranking, err := s.ranking(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resultView{
		SessionID:  session.ID,
		Candidate:  newProfileView(profile),
		Similarity: session.BestMatch.Similarity,
		Percent:    session.BestMatch.Percent(),
		Ranking:    ranking,
		Share:      BuildShareLinks(s.site, profile),
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	ranking, err := s.ranking(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rankingView{SessionID: id, Ranking: ranking})
}

func (s *Server) ranking(ctx context.Context, id uuid.UUID) ([]scoreView, error) {
	scores, err := s.survey.Ranking(ctx, id)
	if err != nil {
		return nil, err
	}
	ranking := make([]scoreView, len(scores))
	for i, sc := range scores {
		ranking[i] = scoreView{CandidateID: sc.CandidateID, Similarity: sc.Similarity, Percent: match.Percent(sc.Similarity)}
	}
	return ranking, nil
}

func (s *Server) handleNeighbours(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	if s.stats == nil {
		s.writeError(w, r, errStatsDisabled)
		return
	}

	limit := defaultNeighbourLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxNeighbourLimit {
			s.writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("limit must be between 1 and %d", maxNeighbourLimit)))
			return
		}
		limit = n
	}

	session, err := s.survey.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !session.Complete() {
		s.writeError(w, r, fmt.Errorf("%w: %d of %d answered", survey.ErrIncomplete, session.Answered(), match.QuestionCount))
		return
	}

	neighbours, err := s.stats.Neighbours(r.Context(), id, session.Answers, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if neighbours == nil {
		neighbours = []results.Neighbour{}
	}
	s.writeJSON(w, http.StatusOK, neighbours)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	profiles := s.catalog.Profiles()
	views := make([]profileView, len(profiles))
	for i, p := range profiles {
		views[i] = newProfileView(p)
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := match.ParseCandidateID(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		return
	}
	profile, found := s.catalog.Profile(id)
	if !found {
		s.writeJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("candidate %s is not in the catalog", id)))
		return
	}
	s.writeJSON(w, http.StatusOK, candidateView{
		profileView: newProfileView(profile),
		Share:       BuildShareLinks(s.site, profile),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.writeError(w, r, errStatsDisabled)
		return
	}

	tally, err := s.stats.Tally(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := statsView{Counts: make(map[match.CandidateID]int)}
	for _, p := range s.catalog.Profiles() {
		view.Counts[p.ID] = tally[p.ID]
		view.Total += tally[p.ID]
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("invalid request body: %v", err)))
		return false
	}
	return true
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, survey.ErrInvalidAnswer), errors.Is(err, match.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, survey.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, survey.ErrIncomplete):
		status = http.StatusConflict
	case errors.Is(err, errStatsDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, status, errorBody("internal error"))
		return
	}
	s.writeJSON(w, status, errorBody(err.Error()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
