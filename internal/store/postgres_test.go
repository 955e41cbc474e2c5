package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE leads`).WillReturnResult(pgxmock.NewResult("LOCK TABLE", 0))
	mock.ExpectQuery(`SELECT created_at FROM leads ORDER BY seq DESC LIMIT 1`).
		WillReturnRows(mock.NewRows([]string{"created_at"}))
	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "Subject: Steel supply", "search", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	analysis := &model.Analysis{Category: model.CategoryWarm, Explanation: "e", OutreachMessage: "m"}
	stored, err := s.Insert(context.Background(), model.NewLead{
		Details:  sampleCandidate(),
		Analysis: analysis,
		Outreach: "Subject: Steel supply",
		Source:   model.LeadSourceSearch,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, analysis, stored.Analysis)
	assert.Equal(t, "Subject: Steel supply", stored.Outreach)
	_, err = time.Parse(time.RFC3339Nano, stored.Timestamp)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert_ClampsToLastTimestamp(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	future := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE leads`).WillReturnResult(pgxmock.NewResult("LOCK TABLE", 0))
	mock.ExpectQuery(`SELECT created_at FROM leads`).
		WillReturnRows(mock.NewRows([]string{"created_at"}).AddRow(future))
	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), nil, "", "", future).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	stored, err := s.Insert(context.Background(), model.NewLead{Details: sampleCandidate()})
	require.NoError(t, err)
	assert.Equal(t, formatTimestamp(future), stored.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE leads`).WillReturnResult(pgxmock.NewResult("LOCK TABLE", 0))
	mock.ExpectQuery(`SELECT created_at FROM leads`).
		WillReturnRows(mock.NewRows([]string{"created_at"}))
	mock.ExpectExec(`INSERT INTO leads`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.Insert(context.Background(), model.NewLead{Details: sampleCandidate()})
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ts := time.Date(2025, 3, 1, 9, 30, 0, 123000, time.UTC)

	mock.ExpectQuery(`SELECT id, details, analysis, outreach, source, created_at FROM leads ORDER BY seq`).
		WillReturnRows(mock.NewRows([]string{"id", "details", "analysis", "outreach", "source", "created_at"}).
			AddRow("a", []byte(`{"title":"Tata Steel","score":0.91}`),
				[]byte(`{"category":"HOT","explanation":"e","outreach_message":"m"}`), "Subject: Hello", "search", ts).
			AddRow("b", []byte(`{"full_name":"Asha"}`), []byte(nil), "", "profile", ts))

	leads, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "a", leads[0].ID)
	require.NotNil(t, leads[0].Analysis)
	assert.Equal(t, model.CategoryHot, leads[0].Analysis.Category)
	assert.Equal(t, "2025-03-01T09:30:00.000123Z", leads[0].Timestamp)
	assert.Equal(t, "Subject: Hello", leads[0].Outreach)
	assert.Empty(t, leads[1].Outreach)
	assert.Nil(t, leads[1].Analysis)
	assert.Equal(t, model.LeadSourceProfile, leads[1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, details, analysis, outreach, source, created_at FROM leads`).
		WillReturnRows(mock.NewRows([]string{"id", "details", "analysis", "outreach", "source", "created_at"}))

	leads, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestPostgresStore_List_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, details`).WillReturnError(errors.New("connection reset"))

	_, err := s.List(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
}

func TestPostgresStore_Clear(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`TRUNCATE leads`).WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))

	require.NoError(t, s.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Clear_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`TRUNCATE leads`).WillReturnError(errors.New("permission denied"))

	err := s.Clear(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
}
