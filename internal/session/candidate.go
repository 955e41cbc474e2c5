package session

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// maxParallelEmails bounds GenerateEmails fan-out.
const maxParallelEmails = 4

// EmailOutcome is the result of generating one outreach email.
type EmailOutcome struct {
	Key   model.CandidateKey
	Email string
	Err   error
}

// ClassifyOutcome is the result of classifying one candidate.
type ClassifyOutcome struct {
	Key      model.CandidateKey
	Analysis *model.Analysis
	Err      error
}

// SaveOutcome is the result of saving one candidate.
type SaveOutcome struct {
	Key  model.CandidateKey
	Lead *model.StoredLead
	Err  error
}

// claim marks key as in flight and returns a copy of its slot and the
// current generation. Callers must release the key.
func (s *Session) claim(key model.CandidateKey) (slot, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != ResultsReady {
		return slot{}, 0, ErrNoResults
	}
	sl, ok := s.slots[key]
	if !ok {
		return slot{}, 0, ErrUnknownCandidate
	}
	if sl.inflight {
		return slot{}, 0, ErrBusy
	}
	sl.inflight = true
	s.touchLocked()
	return *sl, s.gen, nil
}

// release clears the in-flight mark and, when the results have not been
// replaced since claim, applies update to the slot.
func (s *Session) release(key model.CandidateKey, gen uint64, update func(*slot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	if sl, ok := s.slots[key]; ok {
		sl.inflight = false
		if update != nil {
			update(sl)
		}
	}
}

// GenerateEmail composes an outreach email for the candidate and caches it,
// replacing any earlier email for the same key.
func (s *Session) GenerateEmail(ctx context.Context, key model.CandidateKey, sender string) EmailOutcome {
	out := EmailOutcome{Key: key}
	sl, gen, err := s.claim(key)
	if err != nil {
		out.Err = err
		return out
	}

	outreach, err := s.deps.Enricher.ComposeOutreach(ctx, sl.candidate, sender)
	if err != nil {
		s.release(key, gen, nil)
		out.Err = err
		return out
	}
	s.release(key, gen, func(sl *slot) { sl.email = outreach.Email })
	out.Email = outreach.Email
	return out
}

// GenerateEmails composes emails for several candidates concurrently.
// Duplicate keys are collapsed; outcomes follow the order of first
// appearance.
func (s *Session) GenerateEmails(ctx context.Context, keys []model.CandidateKey, sender string) []EmailOutcome {
	seen := make(map[model.CandidateKey]bool, len(keys))
	unique := make([]model.CandidateKey, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			unique = append(unique, k)
		}
	}

	outcomes := make([]EmailOutcome, len(unique))
	var g errgroup.Group
	g.SetLimit(maxParallelEmails)
	for i, k := range unique {
		g.Go(func() error {
			outcomes[i] = s.GenerateEmail(ctx, k, sender)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Classify scores one candidate as HOT, WARM or COLD and caches the
// analysis so a later Save embeds it.
func (s *Session) Classify(ctx context.Context, key model.CandidateKey) ClassifyOutcome {
	out := ClassifyOutcome{Key: key}
	sl, gen, err := s.claim(key)
	if err != nil {
		out.Err = err
		return out
	}

	payload, err := json.Marshal(sl.candidate)
	if err != nil {
		s.release(key, gen, nil)
		out.Err = eris.Wrap(err, "session: marshal candidate")
		return out
	}

	analysis, err := s.deps.Enricher.Classify(ctx, payload)
	if err != nil {
		s.release(key, gen, nil)
		out.Err = err
		return out
	}
	s.release(key, gen, func(sl *slot) { sl.analysis = analysis })
	out.Analysis = analysis
	return out
}

// Save inserts the candidate, with its cached analysis and outreach email
// when present, as a new record. Saving the same candidate again inserts another record.
func (s *Session) Save(ctx context.Context, key model.CandidateKey) SaveOutcome {
	out := SaveOutcome{Key: key}
	sl, gen, err := s.claim(key)
	if err != nil {
		out.Err = err
		return out
	}

	lead, err := s.deps.Store.Insert(ctx, model.NewLead{
		Details:  sl.candidate,
		Analysis: sl.analysis,
		Outreach: sl.email,
		Source:   model.LeadSourceSearch,
	})
	if err != nil {
		s.release(key, gen, nil)
		zap.L().Error("session: save failed", zap.String("session", s.id), zap.Error(err))
		out.Err = err
		return out
	}
	s.release(key, gen, func(sl *slot) { sl.saved++ })
	out.Lead = lead
	return out
}

// AnalyzeOutcome is the result of the profile workflow.
type AnalyzeOutcome struct {
	ProfileURL string
	Profile    json.RawMessage
	Analysis   *model.Analysis
	Lead       *model.StoredLead
	Err        error
}

// Analyze fetches a profile, classifies it and, when save is set, stores
// the profile with its analysis. The search results are not touched.
func (s *Session) Analyze(ctx context.Context, profileURL string, save bool) AnalyzeOutcome {
	out := AnalyzeOutcome{ProfileURL: profileURL}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		out.Err = ErrBusy
		return out
	}
	s.busy = true
	gen := s.gen
	s.touchLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if gen == s.gen {
			s.busy = false
		}
		s.mu.Unlock()
	}()

	profile, err := s.deps.Profiles.FetchProfile(ctx, profileURL)
	if err != nil {
		out.Err = err
		return out
	}
	out.Profile = profile

	analysis, err := s.deps.Enricher.Classify(ctx, profile)
	if err != nil {
		out.Err = err
		return out
	}
	out.Analysis = analysis

	if !save {
		return out
	}
	lead, err := s.deps.Store.Insert(ctx, model.NewLead{
		Details:  profile,
		Analysis: analysis,
		Source:   model.LeadSourceProfile,
	})
	if err != nil {
		out.Err = err
		return out
	}
	out.Lead = lead
	return out
}
