package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	details    JSONB NOT NULL,
	analysis   JSONB,
	outreach   TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE leads ADD COLUMN IF NOT EXISTS outreach TEXT NOT NULL DEFAULT '';
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, lead model.NewLead) (*model.StoredLead, error) {
	id, details, analysis, err := encodeLead(lead)
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}

	var ts time.Time
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		// Serializes inserts across processes so the timestamp clamp sees
		// the latest row.
		if _, err := tx.Exec(ctx, `LOCK TABLE leads IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return eris.Wrap(err, "postgres: lock leads")
		}

		var last time.Time
		err := tx.QueryRow(ctx, `SELECT created_at FROM leads ORDER BY seq DESC LIMIT 1`).Scan(&last)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return eris.Wrap(err, "postgres: read last timestamp")
		}
		ts = nowFunc().UTC().Truncate(time.Microsecond)
		if last.After(ts) {
			ts = last.UTC()
		}

		var analysisArg any
		if analysis != nil {
			analysisArg = string(analysis)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO leads (id, details, analysis, outreach, source, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, string(details), analysisArg, lead.Outreach, string(lead.Source), ts,
		); err != nil {
			return eris.Wrap(err, "postgres: insert lead")
		}
		return nil
	})
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}

	a, err := decodeAnalysis(analysis)
	if err != nil {
		return nil, &model.StorageError{Op: "insert", Err: err}
	}
	return &model.StoredLead{
		ID:        id,
		Details:   details,
		Analysis:  a,
		Outreach:  lead.Outreach,
		Source:    lead.Source,
		Timestamp: formatTimestamp(ts),
	}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.StoredLead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, details, analysis, outreach, source, created_at FROM leads ORDER BY seq`)
	if err != nil {
		return nil, &model.StorageError{Op: "list", Err: eris.Wrap(err, "postgres: list leads")}
	}
	defer rows.Close()

	leads := []model.StoredLead{}
	for rows.Next() {
		var (
			l        model.StoredLead
			details  []byte
			analysis []byte
			source   string
			ts       time.Time
		)
		if err := rows.Scan(&l.ID, &details, &analysis, &l.Outreach, &source, &ts); err != nil {
			return nil, &model.StorageError{Op: "list", Err: eris.Wrap(err, "postgres: scan lead")}
		}
		l.Details = details
		l.Source = model.LeadSource(source)
		l.Timestamp = formatTimestamp(ts)
		if l.Analysis, err = decodeAnalysis(analysis); err != nil {
			return nil, &model.StorageError{Op: "list", Err: err}
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StorageError{Op: "list", Err: eris.Wrap(err, "postgres: list leads iterate")}
	}
	return leads, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE leads`); err != nil {
		return &model.StorageError{Op: "clear", Err: eris.Wrap(err, "postgres: clear leads")}
	}
	return nil
}
