package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MissingTitle is shown in place of an absent candidate title.
const MissingTitle = "N/A"

// CandidateKey is the stable identity of a candidate lead. It survives
// re-ordering and re-fetching of a result list.
type CandidateKey string

// Candidate is a provisional organization or person returned by a search.
// Fields the provider did not send are left at their zero value.
type Candidate struct {
	Title   string         `json:"title,omitempty"`
	URL     string         `json:"url,omitempty"`
	Content string         `json:"content,omitempty"`
	Score   *float64       `json:"score,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// DisplayTitle returns the title, or MissingTitle when the provider sent none.
func (c Candidate) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return MissingTitle
	}
	return c.Title
}

// Key hashes the normalized url and title.
func (c Candidate) Key() CandidateKey {
	h := sha256.New()
	h.Write([]byte(normalizeKeyPart(c.URL)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeKeyPart(c.Title)))
	return CandidateKey(hex.EncodeToString(h.Sum(nil))[:16])
}

func normalizeKeyPart(s string) string {
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// Float returns a pointer to v. Used for optional scores.
func Float(v float64) *float64 {
	return &v
}

// NewLead is the input to a record store insert.
type NewLead struct {
	// Details is the candidate or raw profile payload. It is marshaled as-is.
	Details  any
	Analysis *Analysis
	// Outreach is the outreach email generated before the save, if any.
	Outreach string
	Source   LeadSource
}

// LeadSource records which workflow produced a stored lead.
type LeadSource string

const (
	LeadSourceSearch  LeadSource = "search"
	LeadSourceProfile LeadSource = "profile"
)

// StoredLead is a lead committed to the record store. It is never updated.
type StoredLead struct {
	ID        string          `json:"id"`
	Details   json.RawMessage `json:"details"`
	Analysis  *Analysis       `json:"analysis,omitempty"`
	Outreach  string          `json:"outreach,omitempty"`
	Source    LeadSource      `json:"source,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Candidate decodes Details as a search candidate. Profile payloads decode
// into whatever top-level fields overlap.
func (l StoredLead) Candidate() (Candidate, error) {
	var c Candidate
	if len(l.Details) == 0 {
		return c, nil
	}
	err := json.Unmarshal(l.Details, &c)
	return c, err
}
