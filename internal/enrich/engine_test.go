package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

var profile = json.RawMessage(`{"full_name":"Asha Rao","headline":"Head of Procurement at Tata Steel"}`)

func TestClassify(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.MatchedBy(func(req CompletionRequest) bool {
		return req.Mode == ModeClassify &&
			req.Temperature == 0.7 &&
			assert.ObjectsAreEqual(analysisFields, req.JSONFields) &&
			strings.Contains(req.Prompt, `"full_name": "Asha Rao"`)
	})).Return("```json\n{\"category\":\"hot\",\"explanation\":\"Decision maker\",\"outreach_message\":\"Hi Asha\"}\n```", nil).Once()

	got, err := NewEngine(m).Classify(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryHot, got.Category)
	assert.Equal(t, "Decision maker", got.Explanation)
	assert.Equal(t, "Hi Asha", got.OutreachMessage)
	m.AssertExpectations(t)
}

func TestClassify_MissingCategoryIsMalformed(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything).
		Return(`{"explanation":"Decision maker","outreach_message":"Hi"}`, nil).Once()

	got, err := NewEngine(m).Classify(context.Background(), profile)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, model.IsMalformedCompletion(err))
	assert.Contains(t, err.Error(), `"category"`)
}

func TestClassify_EmptyProfile(t *testing.T) {
	m := &mockCompleter{}
	_, err := NewEngine(m).Classify(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestClassify_BackendFailure(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("anthropic: 401")).Once()

	_, err := NewEngine(m).Classify(context.Background(), profile)
	require.Error(t, err)
	assert.True(t, model.IsEnrichment(err))
	assert.False(t, model.IsMalformedCompletion(err))
}

func TestSummarize_OneCallWithAllCandidates(t *testing.T) {
	candidates := []model.Candidate{
		{Title: "Tata Steel", URL: "https://tatasteel.com", Score: model.Float(0.91)},
		{Title: "JSW Steel", URL: "https://jsw.in", Score: model.Float(0.77)},
	}

	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.MatchedBy(func(req CompletionRequest) bool {
		return req.Mode == ModeSummarize &&
			req.Temperature == 0.7 &&
			len(req.JSONFields) == 0 &&
			strings.Contains(req.Prompt, "Tata Steel") &&
			strings.Contains(req.Prompt, "JSW Steel") &&
			strings.Contains(req.Prompt, "0.91") &&
			strings.Contains(req.Prompt, "0.77")
	})).Return("  ## Leads\n- Tata Steel\n- JSW Steel\n", nil).Once()

	got, err := NewEngine(m).Summarize(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, "## Leads\n- Tata Steel\n- JSW Steel", got.Markdown)
	m.AssertNumberOfCalls(t, "Complete", 1)
}

func TestSummarize_EmptyInputMakesNoCall(t *testing.T) {
	m := &mockCompleter{}
	_, err := NewEngine(m).Summarize(context.Background(), []model.Candidate{})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestSummarize_EmptyCompletion(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything).Return("   \n", nil).Once()

	_, err := NewEngine(m).Summarize(context.Background(), []model.Candidate{{Title: "x"}})
	require.Error(t, err)
	assert.True(t, model.IsEnrichment(err))
	assert.Contains(t, err.Error(), "empty completion")
}

func TestComposeOutreach(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.MatchedBy(func(req CompletionRequest) bool {
		return req.Mode == ModeOutreach &&
			req.Temperature == 0.85 &&
			strings.Contains(req.Prompt, "Sign the email as: Priya, Acme Logistics") &&
			strings.Contains(req.Prompt, "Tata Steel")
	})).Return("Subject: Partnership\n\nHello Tata Steel team", nil).Once()

	got, err := NewEngine(m).ComposeOutreach(context.Background(),
		model.Candidate{Title: "Tata Steel"}, "Priya, Acme Logistics")
	require.NoError(t, err)
	assert.Equal(t, "Subject: Partnership\n\nHello Tata Steel team", got.Email)
}

func TestComposeOutreach_NoSender(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.MatchedBy(func(req CompletionRequest) bool {
		return !strings.Contains(req.Prompt, "Sign the email as")
	})).Return("Subject: Hi", nil).Once()

	_, err := NewEngine(m).ComposeOutreach(context.Background(), model.Candidate{Title: "x"}, "  ")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestEngine_RetriesTransientFailures(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything).
		Return("", resilience.NewTransientError(errors.New("overloaded"), 529)).Once()
	m.On("Complete", mock.Anything, mock.Anything).Return("Subject: Hi", nil).Once()

	_, err := NewEngine(m, WithMaxAttempts(2)).ComposeOutreach(context.Background(), model.Candidate{Title: "x"}, "")
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "Complete", 2)
}

func TestEngine_DefaultIsSingleAttempt(t *testing.T) {
	m := &mockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything).
		Return("", resilience.NewTransientError(errors.New("overloaded"), 503))

	_, err := NewEngine(m).ComposeOutreach(context.Background(), model.Candidate{Title: "x"}, "")
	require.Error(t, err)
	m.AssertNumberOfCalls(t, "Complete", 1)
}

func TestEngine_CustomPrompts(t *testing.T) {
	p, err := NewPrompts(PromptFile{System: "custom system", Outreach: "Write to {{.Title}}"})
	require.NoError(t, err)

	m := &mockCompleter{}
	m.On("Complete", mock.Anything, CompletionRequest{
		Mode:        ModeOutreach,
		System:      "custom system",
		Prompt:      "Write to Tata Steel",
		Temperature: 0.85,
	}).Return("ok", nil).Once()

	_, err = NewEngine(m, WithPrompts(p)).ComposeOutreach(context.Background(), model.Candidate{Title: "Tata Steel"}, "")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

// blockingCompleter waits until its context ends.
type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestEngine_TimeoutIsEnrichmentError(t *testing.T) {
	candidates := []model.Candidate{{Title: "Tata Steel"}}

	t.Run("engine timeout", func(t *testing.T) {
		start := time.Now()
		_, err := NewEngine(blockingCompleter{}, WithTimeout(50*time.Millisecond)).
			Summarize(context.Background(), candidates)
		require.Error(t, err)
		assert.True(t, model.IsEnrichment(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("caller deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewEngine(blockingCompleter{}).ComposeOutreach(ctx, candidates[0], "")
		require.Error(t, err)
		assert.True(t, model.IsEnrichment(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
