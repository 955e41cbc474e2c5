// Package session sequences search, enrichment and persistence for one
// operator. All per-operator state lives on a Session value.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var (
	// ErrBusy is returned when an operation overlaps another one that
	// touches the same state.
	ErrBusy = errors.New("session: another operation is in progress")
	// ErrNoResults is returned by candidate operations before a search has
	// produced results.
	ErrNoResults = errors.New("session: no search results")
	// ErrUnknownCandidate is returned for a key not in the current results.
	ErrUnknownCandidate = errors.New("session: unknown candidate")
	// ErrCleared is returned by a search that was overtaken by Clear.
	ErrCleared = errors.New("session: cleared while the search was in flight")
)

// State is the session's position in the search workflow.
type State int

const (
	Idle State = iota
	Searching
	ResultsReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case ResultsReady:
		return "results_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Enricher is the subset of the enrichment engine a session uses.
type Enricher interface {
	Classify(ctx context.Context, profile json.RawMessage) (*model.Analysis, error)
	Summarize(ctx context.Context, candidates []model.Candidate) (*model.Summary, error)
	ComposeOutreach(ctx context.Context, candidate model.Candidate, sender string) (*model.Outreach, error)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Search   source.Connector
	Profiles source.ProfileFetcher
	Enricher Enricher
	Store    store.Store
}

// Entry is one candidate in the current results with its cached state.
type Entry struct {
	Key       model.CandidateKey `json:"key"`
	Candidate model.Candidate    `json:"candidate"`
	Email     string             `json:"email,omitempty"`
	Analysis  *model.Analysis    `json:"analysis,omitempty"`
	Saved     int                `json:"saved"`
}

type slot struct {
	candidate model.Candidate
	email     string
	analysis  *model.Analysis
	saved     int
	inflight  bool
}

// Session holds one operator's search results and per-candidate caches.
// Search, Summarize and Analyze run one at a time; per-candidate operations
// may run concurrently on distinct keys.
type Session struct {
	id   string
	deps Deps

	mu       sync.Mutex
	state    State
	busy     bool
	gen      uint64
	keyword  string
	region   string
	order    []model.CandidateKey
	slots    map[model.CandidateKey]*slot
	summary  *model.Summary
	lastUsed time.Time
}

// New returns an idle session.
func New(deps Deps) *Session {
	return &Session{
		id:       uuid.New().String(),
		deps:     deps,
		slots:    map[model.CandidateKey]*slot{},
		lastUsed: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Results returns the current candidates with their cached email, analysis
// and save count, in provider order.
func (s *Session) Results() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

// Summary returns the last summary generated for the current results.
func (s *Session) Summary() *model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Session) entriesLocked() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		sl := s.slots[k]
		out = append(out, Entry{
			Key:       k,
			Candidate: sl.candidate,
			Email:     sl.email,
			Analysis:  sl.analysis,
			Saved:     sl.saved,
		})
	}
	return out
}

// SearchOutcome is the result of Search. Err is set on failure, in which case
// the session is back to Idle.
type SearchOutcome struct {
	Keyword   string
	Region    string
	Entries   []Entry
	NoResults bool
	Err       error
}

// Search replaces the current results with a fresh search. An empty keyword
// is rejected without a network call.
func (s *Session) Search(ctx context.Context, keyword, region string) SearchOutcome {
	keyword, region = strings.TrimSpace(keyword), strings.TrimSpace(region)
	out := SearchOutcome{Keyword: keyword, Region: region}
	if keyword == "" {
		out.Err = model.NewValidationError("keyword", "must not be empty")
		return out
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		out.Err = ErrBusy
		return out
	}
	s.busy = true
	s.gen++
	gen := s.gen
	s.resetLocked()
	s.state = Searching
	s.keyword, s.region = keyword, region
	s.touchLocked()
	s.mu.Unlock()

	candidates, err := s.deps.Search.Search(ctx, keyword, region)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		out.Err = ErrCleared
		return out
	}
	s.busy = false

	if err != nil {
		s.resetLocked()
		s.state = Idle
		zap.L().Warn("session: search failed",
			zap.String("session", s.id),
			zap.String("keyword", keyword),
			zap.Error(err),
		)
		out.Err = err
		return out
	}

	for _, c := range candidates {
		key := c.Key()
		for n := 2; s.slots[key] != nil; n++ {
			key = model.CandidateKey(fmt.Sprintf("%s-%d", c.Key(), n))
		}
		s.order = append(s.order, key)
		s.slots[key] = &slot{candidate: c}
	}
	s.state = ResultsReady

	out.Entries = s.entriesLocked()
	out.NoResults = len(out.Entries) == 0
	zap.L().Info("session: search complete",
		zap.String("session", s.id),
		zap.String("keyword", keyword),
		zap.String("region", region),
		zap.Int("results", len(out.Entries)),
	)
	return out
}

// Summarize generates one summary covering every current candidate.
func (s *Session) Summarize(ctx context.Context) (*model.Summary, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.state != ResultsReady {
		s.mu.Unlock()
		return nil, ErrNoResults
	}
	candidates := make([]model.Candidate, 0, len(s.order))
	for _, k := range s.order {
		candidates = append(candidates, s.slots[k].candidate)
	}
	s.busy = true
	gen := s.gen
	s.touchLocked()
	s.mu.Unlock()

	summary, err := s.deps.Enricher.Summarize(ctx, candidates)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.busy = false
		if err == nil {
			s.summary = summary
		}
	}
	return summary, err
}

// Clear wipes the record store and resets the session to Idle. It may be
// called in any state; an in-flight search is discarded when it returns.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.busy = false
	s.resetLocked()
	s.state = Idle
	s.keyword, s.region = "", ""
	s.touchLocked()
	s.mu.Unlock()

	if err := s.deps.Store.Clear(ctx); err != nil {
		return err
	}
	zap.L().Info("session: cleared", zap.String("session", s.id))
	return nil
}

// Leads lists every stored lead.
func (s *Session) Leads(ctx context.Context) ([]model.StoredLead, error) {
	return s.deps.Store.List(ctx)
}

func (s *Session) resetLocked() {
	s.order = nil
	s.slots = map[model.CandidateKey]*slot{}
	s.summary = nil
}

func (s *Session) touchLocked() {
	s.lastUsed = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
