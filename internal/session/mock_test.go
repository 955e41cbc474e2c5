package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

type mockConnector struct{ mock.Mock }

func (m *mockConnector) Search(ctx context.Context, keyword, region string) ([]model.Candidate, error) {
	args := m.Called(ctx, keyword, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Candidate), args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) FetchProfile(ctx context.Context, profileURL string) (json.RawMessage, error) {
	args := m.Called(ctx, profileURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type mockEnricher struct{ mock.Mock }

func (m *mockEnricher) Classify(ctx context.Context, profile json.RawMessage) (*model.Analysis, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *mockEnricher) Summarize(ctx context.Context, candidates []model.Candidate) (*model.Summary, error) {
	args := m.Called(ctx, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

func (m *mockEnricher) ComposeOutreach(ctx context.Context, c model.Candidate, sender string) (*model.Outreach, error) {
	args := m.Called(ctx, c, sender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Outreach), args.Error(1)
}

type fixture struct {
	conn     *mockConnector
	profiles *mockProfiles
	enricher *mockEnricher
	store    store.Store
	session  *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewJSON(filepath.Join(t.TempDir(), "leads_db.json"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	f := &fixture{
		conn:     &mockConnector{},
		profiles: &mockProfiles{},
		enricher: &mockEnricher{},
		store:    st,
	}
	f.session = New(f.deps())
	return f
}

func (f *fixture) deps() Deps {
	return Deps{Search: f.conn, Profiles: f.profiles, Enricher: f.enricher, Store: f.store}
}

func steelCandidates() []model.Candidate {
	return []model.Candidate{
		{Title: "Tata Steel", URL: "https://tatasteel.com", Content: "Integrated steel producer", Score: model.Float(0.91)},
		{Title: "JSW Steel", URL: "https://jsw.in", Content: "Flat steel exporter", Score: model.Float(0.77)},
	}
}
