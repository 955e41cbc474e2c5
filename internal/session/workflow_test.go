package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// recordingCompleter answers every mode with a canned completion and keeps
// the requests it saw.
type recordingCompleter struct {
	mu   sync.Mutex
	reqs []enrich.CompletionRequest
}

func (r *recordingCompleter) Complete(_ context.Context, req enrich.CompletionRequest) (string, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	switch req.Mode {
	case enrich.ModeSummarize:
		return "## Steel exporters\n- Tata Steel\n- JSW Steel", nil
	case enrich.ModeOutreach:
		return "Subject: Export partnership\n\nHello,", nil
	default:
		return `{"category":"HOT","explanation":"large exporter","outreach_message":"hi"}`, nil
	}
}

func (r *recordingCompleter) byMode(m enrich.Mode) []enrich.CompletionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []enrich.CompletionRequest
	for _, req := range r.reqs {
		if req.Mode == m {
			out = append(out, req)
		}
	}
	return out
}

func TestWorkflow_SearchSummarizeEmailSave(t *testing.T) {
	st, err := store.NewJSON(filepath.Join(t.TempDir(), "data", "leads_db.json"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	defer st.Close() //nolint:errcheck

	conn := &mockConnector{}
	conn.On("Search", mock.Anything, "steel exporters", "India").Return(steelCandidates(), nil).Once()
	completer := &recordingCompleter{}

	s := New(Deps{Search: conn, Enricher: enrich.NewEngine(completer), Store: st})
	ctx := context.Background()

	out := s.Search(ctx, "steel exporters", "India")
	require.NoError(t, out.Err)
	require.Len(t, out.Entries, 2)

	summary, err := s.Summarize(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary.Markdown, "Tata Steel")

	summaries := completer.byMode(enrich.ModeSummarize)
	require.Len(t, summaries, 1, "one completion covers the whole batch")
	assert.True(t, strings.Contains(summaries[0].Prompt, "Tata Steel"))
	assert.True(t, strings.Contains(summaries[0].Prompt, "JSW Steel"))

	email := s.GenerateEmail(ctx, out.Entries[0].Key, "")
	require.NoError(t, email.Err)
	assert.True(t, strings.HasPrefix(email.Email, "Subject:"))

	saved := s.Save(ctx, out.Entries[0].Key)
	require.NoError(t, saved.Err)

	leads, err := s.Leads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	var details map[string]any
	require.NoError(t, json.Unmarshal(leads[0].Details, &details))
	assert.Equal(t, 0.91, details["score"])
	assert.Equal(t, "Tata Steel", details["title"])
	assert.NotEmpty(t, leads[0].Timestamp)
	assert.Equal(t, email.Email, leads[0].Outreach)
}
