package api

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/saaga0h/candidate-match/internal/catalog"
	"github.com/saaga0h/candidate-match/internal/match"
	"github.com/saaga0h/candidate-match/internal/survey"
)

type matchView struct {
	CandidateID match.CandidateID `json:"candidate_id"`
	Similarity  float64           `json:"similarity"`
	Percent     int               `json:"percent"`
}

type sessionView struct {
	ID          uuid.UUID   `json:"id"`
	Answers     []int       `json:"answers"`
	Answered    int         `json:"answered"`
	Complete    bool        `json:"complete"`
	CurrentStep int         `json:"current_step"`
	Page        survey.Page `json:"page"`
	BestMatch   *matchView  `json:"best_match,omitempty"`
}

func newSessionView(s *survey.Session) sessionView {
	v := sessionView{
		ID:          s.ID,
		Answers:     s.Answers,
		Answered:    s.Answered(),
		Complete:    s.Complete(),
		CurrentStep: s.CurrentStep,
		Page:        s.Page(),
	}
	if s.BestMatch != nil {
		v.BestMatch = &matchView{
			CandidateID: s.BestMatch.CandidateID,
			Similarity:  s.BestMatch.Similarity,
			Percent:     s.BestMatch.Percent(),
		}
	}
	return v
}

type profileView struct {
	ID     match.CandidateID `json:"id"`
	Name   string            `json:"name"`
	Ballot int               `json:"ballot"`
	Symbol string            `json:"symbol"`
	Color  string            `json:"color"`
	Image  string            `json:"image"`
}

func newProfileView(p catalog.Profile) profileView {
	return profileView{
		ID:     p.ID,
		Name:   p.Name,
		Ballot: p.Ballot,
		Symbol: p.Symbol(),
		Color:  p.Color,
		Image:  p.Image,
	}
}

type scoreView struct {
	CandidateID match.CandidateID `json:"candidate_id"`
	Similarity  float64           `json:"similarity"`
	Percent     int               `json:"percent"`
}

// ShareLinks carries everything a client needs to share a result
type ShareLinks struct {
	URL        string `json:"url"`
	Text       string `json:"text"`
	TwitterURL string `json:"twitter_url"`
	ImageURL   string `json:"image_url"`
}

// BuildShareLinks builds the public result link for a candidate on site
func BuildShareLinks(site string, p catalog.Profile) ShareLinks {
	resultURL := fmt.Sprintf("%s/result?%s", site, url.Values{"id": {string(p.ID)}}.Encode())
	text := fmt.Sprintf("나와 가장 맞는 후보는 %s!", p.Name)

	return ShareLinks{
		URL:        resultURL,
		Text:       text,
		TwitterURL: "https://twitter.com/intent/tweet?" + url.Values{"url": {resultURL}, "text": {text}}.Encode(),
		ImageURL:   fmt.Sprintf("%s/og/%s.png", site, url.PathEscape(string(p.ID))),
	}
}

type resultView struct {
	SessionID  uuid.UUID   `json:"session_id"`
	Candidate  profileView `json:"candidate"`
	Similarity float64     `json:"similarity"`
	Percent    int         `json:"percent"`
	Ranking    []scoreView `json:"ranking"`
	Share      ShareLinks  `json:"share"`
}

type rankingView struct {
	SessionID uuid.UUID   `json:"session_id"`
	Ranking   []scoreView `json:"ranking"`
}

type candidateView struct {
	profileView
	Share ShareLinks `json:"share"`
}

type statsView struct {
	Total  int                       `json:"total"`
	Counts map[match.CandidateID]int `json:"counts"`
}
