package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// leadsTable is the document table holding lead records.
const leadsTable = "leads"

// JSONStore keeps leads in a single JSON document laid out as named tables of
// numbered records:
//
//	{"leads": {"1": {...}, "2": {...}}}
//
// The whole file is read on every operation and rewritten through a temp
// file and rename. Other tables in the document are preserved.
type JSONStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewJSON returns a JSONStore at path. The file is created on first write.
func NewJSON(path string) (*JSONStore, error) {
	if path == "" {
		return nil, eris.New("json store: path is required")
	}
	return &JSONStore{path: path, lock: flock.New(path + ".lock")}, nil
}

// jsonRecord is the on-disk shape of one lead. Profile is the key used by
// files written before records carried details.
type jsonRecord struct {
	ID        string          `json:"id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
	Outreach  string          `json:"outreach,omitempty"`
	Source    string          `json:"source,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *JSONStore) Migrate(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "json store: create directory")
	}
	return nil
}

func (s *JSONStore) Close() error {
	return s.lock.Close()
}

func (s *JSONStore) Insert(ctx context.Context, lead model.NewLead) (*model.StoredLead, error) {
	id, details, analysis, err := encodeLead(lead)
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}

	var stored *model.StoredLead
	err = s.withLock(ctx, func() error {
		doc, table, err := s.load()
		if err != nil {
			return err
		}

		keys := sortedKeys(table)
		next, last := 1, ""
		if len(keys) > 0 {
			next = keys[len(keys)-1] + 1
			var prev jsonRecord
			if json.Unmarshal(table[strconv.Itoa(keys[len(keys)-1])], &prev) == nil {
				last = prev.Timestamp
			}
		}

		rec := jsonRecord{
			ID:        id,
			Details:   details,
			Analysis:  analysis,
			Outreach:  lead.Outreach,
			Source:    string(lead.Source),
			Timestamp: formatTimestamp(nextTimestamp(last)),
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "json store: marshal record")
		}
		table[strconv.Itoa(next)] = raw

		if err := s.save(doc, table); err != nil {
			return err
		}
		stored, err = rec.toLead(strconv.Itoa(next))
		return err
	})
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}
	return stored, nil
}

func (s *JSONStore) List(_ context.Context) ([]model.StoredLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, table, err := s.load()
	if err != nil {
		return nil, &model.StorageError{Op: "list", Err: err}
	}

	leads := make([]model.StoredLead, 0, len(table))
	for _, k := range sortedKeys(table) {
		docID := strconv.Itoa(k)
		var rec jsonRecord
		if err := json.Unmarshal(table[docID], &rec); err != nil {
			return nil, &model.StorageError{Op: "list", Err: eris.Wrapf(err, "json store: decode record %s", docID)}
		}
		lead, err := rec.toLead(docID)
		if err != nil {
			return nil, &model.StorageError{Op: "list", Err: err}
		}
		leads = append(leads, *lead)
	}
	return leads, nil
}

func (s *JSONStore) Clear(ctx context.Context) error {
	err := s.withLock(ctx, func() error {
		doc, _, err := s.load()
		if err != nil {
			return err
		}
		return s.save(doc, map[string]json.RawMessage{})
	})
	if err != nil {
		return &model.StorageError{Op: "clear", Err: err}
	}
	return nil
}

// withLock holds the in-process mutex and the cross-process file lock.
func (s *JSONStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "json store: create directory")
	}
	locked, err := s.lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		return eris.Wrap(err, "json store: acquire file lock")
	}
	if !locked {
		return eris.New("json store: file lock not acquired")
	}
	defer s.lock.Unlock() //nolint:errcheck

	return fn()
}

// load reads the whole document. A missing or empty file is an empty
// document.
func (s *JSONStore) load() (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	table := map[string]json.RawMessage{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, table, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "json store: read file")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, table, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, eris.Wrap(err, "json store: decode document")
	}
	if raw, ok := doc[leadsTable]; ok {
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, nil, eris.Wrap(err, "json store: decode leads table")
		}
	}
	return doc, table, nil
}

// save writes the document through a temp file in the same directory and
// renames it over the original, leaving the old file intact on failure.
func (s *JSONStore) save(doc, table map[string]json.RawMessage) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return eris.Wrap(err, "json store: encode leads table")
	}
	doc[leadsTable] = raw

	data, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrap(err, "json store: encode document")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "json store: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "json store: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "json store: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "json store: close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return eris.Wrap(err, "json store: replace file")
	}
	return nil
}

func (r jsonRecord) toLead(docID string) (*model.StoredLead, error) {
	analysis, err := decodeAnalysis(r.Analysis)
	if err != nil {
		return nil, err
	}
	details := r.Details
	if len(details) == 0 {
		details = r.Profile
	}
	id := r.ID
	if id == "" {
		id = docID
	}
	return &model.StoredLead{
		ID:        id,
		Details:   details,
		Analysis:  analysis,
		Outreach:  r.Outreach,
		Source:    model.LeadSource(r.Source),
		Timestamp: r.Timestamp,
	}, nil
}

// sortedKeys returns the numeric document IDs in ascending order. Keys that
// are not integers are ignored.
func sortedKeys(table map[string]json.RawMessage) []int {
	keys := make([]int, 0, len(table))
	for k := range table {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)
	return keys
}
