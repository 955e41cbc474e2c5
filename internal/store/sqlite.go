package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	details    TEXT NOT NULL,
	analysis   TEXT,
	outreach   TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	// Tables created before outreach was stored lack the column.
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('leads') WHERE name = 'outreach'`).Scan(&n); err != nil {
		return eris.Wrap(err, "sqlite: inspect leads columns")
	}
	if n == 0 {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE leads ADD COLUMN outreach TEXT NOT NULL DEFAULT ''`); err != nil {
			return eris.Wrap(err, "sqlite: add outreach column")
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, lead model.NewLead) (*model.StoredLead, error) {
	id, details, analysis, err := encodeLead(lead)
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.insert(ctx, id, details, analysis, lead)
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}
	return stored, nil
}

func (s *SQLiteStore) insert(ctx context.Context, id string, details, analysis []byte, lead model.NewLead) (*model.StoredLead, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var last string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM leads ORDER BY seq DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(err, "sqlite: read last timestamp")
	}
	ts := formatTimestamp(nextTimestamp(last))

	var analysisArg any
	if analysis != nil {
		analysisArg = string(analysis)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO leads (id, details, analysis, outreach, source, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(details), analysisArg, lead.Outreach, string(lead.Source), ts,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}

	a, err := decodeAnalysis(analysis)
	if err != nil {
		return nil, err
	}
	return &model.StoredLead{
		ID:        id,
		Details:   details,
		Analysis:  a,
		Outreach:  lead.Outreach,
		Source:    lead.Source,
		Timestamp: ts,
	}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.StoredLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, details, analysis, outreach, source, created_at FROM leads ORDER BY seq`)
	if err != nil {
		return nil, &model.StorageError{Op: "list", Err: eris.Wrap(err, "sqlite: list leads")}
	}
	defer rows.Close() //nolint:errcheck

	leads := []model.StoredLead{}
	for rows.Next() {
		var (
			l        model.StoredLead
			details  string
			analysis sql.NullString
			source   string
		)
		if err := rows.Scan(&l.ID, &details, &analysis, &l.Outreach, &source, &l.Timestamp); err != nil {
			return nil, &model.StorageError{Op: "list", Err: eris.Wrap(err, "sqlite: scan lead")}
		}
		l.Details = []byte(details)
		l.Source = model.LeadSource(source)
		if analysis.Valid {
			if l.Analysis, err = decodeAnalysis([]byte(analysis.String)); err != nil {
				return nil, &model.StorageError{Op: "list", Err: err}
			}
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StorageError{Op: "list", Err: eris.Wrap(err, "sqlite: list leads iterate")}
	}
	return leads, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return &model.StorageError{Op: "clear", Err: eris.Wrap(err, "sqlite: clear leads")}
	}
	return nil
}
