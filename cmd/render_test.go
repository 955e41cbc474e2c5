package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

func TestCategoryBadge(t *testing.T) {
	assert.Contains(t, categoryBadge(model.CategoryHot), "HOT")
	assert.Contains(t, categoryBadge(model.CategoryWarm), "WARM")
	assert.Contains(t, categoryBadge(model.CategoryCold), "COLD")
	assert.Contains(t, categoryBadge("LUKEWARM"), "LUKEWARM")
	assert.Contains(t, categoryBadge(""), "UNRATED")
}

func TestRenderCandidates(t *testing.T) {
	var buf bytes.Buffer
	renderCandidates(&buf, []session.Entry{
		{Candidate: model.Candidate{Title: "Tata Steel", URL: "https://tatasteel.com", Content: "Integrated\n\nsteel", Score: model.Float(0.91)}},
		{Candidate: model.Candidate{URL: "https://unknown.example"}},
	})

	out := buf.String()
	assert.Contains(t, out, "1. Tata Steel")
	assert.Contains(t, out, "score 0.91")
	assert.Contains(t, out, "Integrated steel")
	assert.Contains(t, out, "2. N/A")
}

func TestRenderLeads_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderLeads(&buf, nil)
	assert.Equal(t, "No saved leads.\n", buf.String())
}

func TestRenderLeads(t *testing.T) {
	var buf bytes.Buffer
	renderLeads(&buf, []model.StoredLead{{
		ID:        "3",
		Details:   []byte(`{"title":"JSW Steel","url":"https://jsw.in"}`),
		Analysis:  &model.Analysis{Category: model.CategoryWarm},
		Timestamp: "2026-10-01T10:00:00Z",
	}})
	out := buf.String()
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "WARM")
	assert.Contains(t, out, "JSW Steel")
	assert.Contains(t, out, "https://jsw.in")
}

func TestRenderError(t *testing.T) {
	out := renderError(&model.ConfigurationError{Problems: []string{"tavily.key is required", "anthropic.key is required"}})
	assert.Contains(t, out, "Configuration problems")
	assert.Contains(t, out, "  - tavily.key is required\n  - anthropic.key is required")

	assert.Contains(t, renderError(errors.New("boom")), "boom")
}

func TestSnip(t *testing.T) {
	assert.Equal(t, "a b", snip("  a \n b ", 10))
	assert.Equal(t, "abc...", snip("abcdef", 3))
}
