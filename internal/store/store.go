// Package store persists lead records. Records are append-only: there is no
// update, and Clear discards the whole collection.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Store is an append-only collection of lead records. Implementations
// serialize Insert and Clear so concurrent sessions may share one store.
type Store interface {
	// Insert assigns an ID and timestamp and appends the lead.
	Insert(ctx context.Context, lead model.NewLead) (*model.StoredLead, error)
	// List returns every record in insertion order. An empty store yields an
	// empty, non-nil slice.
	List(ctx context.Context) ([]model.StoredLead, error)
	// Clear discards every record.
	Clear(ctx context.Context) error

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and locates a store backend.
type Config struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open returns the Store for cfg.Driver and runs its migration.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "json":
		st, err = NewJSON(cfg.Path)
	case "sqlite":
		st, err = NewSQLite(cfg.Path)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, &model.StorageError{Op: "open", Err: err}
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, &model.StorageError{Op: "migrate", Err: err}
	}
	return st, nil
}

// nowFunc is replaced in tests.
var nowFunc = time.Now

// nextTimestamp returns max(now, last) in UTC so timestamps never go
// backwards, even across wall-clock adjustments. last may be empty.
func nextTimestamp(last string) time.Time {
	now := nowFunc().UTC()
	if last == "" {
		return now
	}
	prev, err := time.Parse(time.RFC3339Nano, last)
	if err != nil {
		return now
	}
	if prev.After(now) {
		return prev.UTC()
	}
	return now
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// encodeLead marshals the parts of a new lead and assigns its ID.
func encodeLead(lead model.NewLead) (id string, details, analysis []byte, err error) {
	switch d := lead.Details.(type) {
	case nil:
		details = []byte("null")
	case json.RawMessage:
		details = d
	default:
		if details, err = json.Marshal(d); err != nil {
			return "", nil, nil, eris.Wrap(err, "store: marshal details")
		}
	}
	if !json.Valid(details) {
		return "", nil, nil, eris.New("store: details are not valid JSON")
	}
	if lead.Analysis != nil {
		if analysis, err = json.Marshal(lead.Analysis); err != nil {
			return "", nil, nil, eris.Wrap(err, "store: marshal analysis")
		}
	}
	return uuid.New().String(), details, analysis, nil
}

func decodeAnalysis(raw []byte) (*model.Analysis, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var a model.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, eris.Wrap(err, "store: decode analysis")
	}
	return &a, nil
}
