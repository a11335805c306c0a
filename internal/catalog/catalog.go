// Package catalog loads the candidate catalog: each candidate's position
// vector together with the attributes used to display a result.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/candidate-match/internal/match"
)

//go:embed candidates.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when a catalog file fails validation
var ErrInvalidCatalog = errors.New("invalid catalog")

// Profile describes one candidate
type Profile struct {
	ID     match.CandidateID `yaml:"id" json:"id"`
	Name   string            `yaml:"name" json:"name"`
	Ballot int               `yaml:"ballot" json:"ballot"`
	Color  string            `yaml:"color" json:"color"`
	Image  string            `yaml:"image" json:"image"`
	Vector []int             `yaml:"vector" json:"vector"`
}

// Symbol returns the ballot label shown next to the candidate's name
func (p Profile) Symbol() string {
	return fmt.Sprintf("기호 %d번", p.Ballot)
}

type catalogFile struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Candidates  []Profile `yaml:"candidates"`
}

// Catalog is the immutable, ballot-ordered set of candidates
type Catalog struct {
	title       string
	description string
	profiles    []Profile
	byID        map[match.CandidateID]int
}

// Load reads a catalog from a YAML file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return LoadFromBytes(data)
}

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return LoadFromBytes(defaultCatalogYAML)
}

// LoadFromBytes parses and validates catalog YAML
func LoadFromBytes(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := validate(file.Candidates); err != nil {
		return nil, err
	}

	profiles := make([]Profile, len(file.Candidates))
	for i, p := range file.Candidates {
		p.Vector = append([]int(nil), p.Vector...)
		profiles[i] = p
	}

	// Matching order is ballot order, which decides exact ties
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].Ballot < profiles[j].Ballot
	})

	byID := make(map[match.CandidateID]int, len(profiles))
	for i, p := range profiles {
		byID[p.ID] = i
	}

	return &Catalog{
		title:       file.Title,
		description: file.Description,
		profiles:    profiles,
		byID:        byID,
	}, nil
}

func validate(profiles []Profile) error {
	if len(profiles) == 0 {
		return fmt.Errorf("%w: no candidates", ErrInvalidCatalog)
	}

	seenIDs := make(map[match.CandidateID]bool)
	seenBallots := make(map[int]match.CandidateID)

	for i, p := range profiles {
		if !p.ID.Valid() {
			return fmt.Errorf("%w: candidate %d has unknown id %q", ErrInvalidCatalog, i, p.ID)
		}
		if seenIDs[p.ID] {
			return fmt.Errorf("%w: duplicate candidate %s", ErrInvalidCatalog, p.ID)
		}
		seenIDs[p.ID] = true

		if p.Ballot <= 0 {
			return fmt.Errorf("%w: candidate %s has no ballot number", ErrInvalidCatalog, p.ID)
		}
		if other, ok := seenBallots[p.Ballot]; ok {
			return fmt.Errorf("%w: candidates %s and %s share ballot %d", ErrInvalidCatalog, other, p.ID, p.Ballot)
		}
		seenBallots[p.Ballot] = p.ID

		if len(p.Vector) != match.QuestionCount {
			return fmt.Errorf("%w: candidate %s has %d positions, want %d", ErrInvalidCatalog, p.ID, len(p.Vector), match.QuestionCount)
		}
		for q, v := range p.Vector {
			if v < 1 || v > 5 {
				return fmt.Errorf("%w: candidate %s question %d has value %d outside 1..5", ErrInvalidCatalog, p.ID, q+1, v)
			}
		}
	}

	return nil
}

// Title returns the survey title
func (c *Catalog) Title() string { return c.title }

// Description returns the survey description
func (c *Catalog) Description() string { return c.description }

// Candidates returns the match records in ballot order
func (c *Catalog) Candidates() []match.Candidate {
	candidates := make([]match.Candidate, len(c.profiles))
	for i, p := range c.profiles {
		candidates[i] = match.Candidate{
			ID:     p.ID,
			Vector: append([]int(nil), p.Vector...),
		}
	}
	return candidates
}

// Profiles returns every profile in ballot order
func (c *Catalog) Profiles() []Profile {
	profiles := make([]Profile, len(c.profiles))
	for i, p := range c.profiles {
		p.Vector = append([]int(nil), p.Vector...)
		profiles[i] = p
	}
	return profiles
}

// Profile looks up a candidate by id
func (c *Catalog) Profile(id match.CandidateID) (Profile, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Profile{}, false
	}
	p := c.profiles[i]
	p.Vector = append([]int(nil), p.Vector...)
	return p, true
}

// Len returns the number of candidates
func (c *Catalog) Len() int {
	return len(c.profiles)
}
