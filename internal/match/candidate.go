package match

import "fmt"

// CandidateID identifies one of the candidates in the closed candidate set
type CandidateID string

const (
	LeeJM   CandidateID = "LeeJM"
	KimMS   CandidateID = "KimMS"
	LeeJS   CandidateID = "LeeJS"
	KwonYG  CandidateID = "KwonYG"
	HwangKA CandidateID = "HwangKA"
)

var allCandidateIDs = []CandidateID{LeeJM, KimMS, LeeJS, KwonYG, HwangKA}

// AllCandidateIDs returns every known candidate id in declaration order
func AllCandidateIDs() []CandidateID {
	ids := make([]CandidateID, len(allCandidateIDs))
	copy(ids, allCandidateIDs)
	return ids
}

// Valid reports whether id belongs to the candidate set
func (id CandidateID) Valid() bool {
	for _, known := range allCandidateIDs {
		if id == known {
			return true
		}
	}
	return false
}

// ParseCandidateID converts s into a CandidateID, rejecting unknown ids
func ParseCandidateID(s string) (CandidateID, error) {
	id := CandidateID(s)
	if !id.Valid() {
		return "", fmt.Errorf("%w: unknown candidate %q", ErrInvalidInput, s)
	}
	return id, nil
}

// Candidate is a candidate's canonical position on every question
type Candidate struct {
	ID     CandidateID
	Vector []int
}

// Result is the outcome of matching an answer vector against a catalog.
// Similarity is unrounded and lies in [0, 1] for valid Likert input.
type Result struct {
	Best       Candidate
	Similarity float64
}

// Score pairs a candidate with its similarity to an answer vector
type Score struct {
	CandidateID CandidateID
	Similarity  float64
}
