// Package enrich derives lead annotations (category, summary, outreach text)
// from a single completion call per operation.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Engine runs enrichment prompts against a Completer. It keeps no state
// between calls and is safe for concurrent use.
type Engine struct {
	completer   Completer
	prompts     *Prompts
	maxAttempts int
	timeout     time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(p *Prompts) Option {
	return func(e *Engine) {
		if p != nil {
			e.prompts = p
		}
	}
}

// WithMaxAttempts sets how many times a transient completion failure is tried.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) { e.maxAttempts = n }
}

// WithTimeout bounds each completion attempt. Zero leaves only the caller's
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine returns an Engine backed by c.
func NewEngine(c Completer, opts ...Option) *Engine {
	e := &Engine{completer: c, prompts: DefaultPrompts(), maxAttempts: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify categorizes a profile document as HOT, WARM or COLD. A completion
// that does not decode into all three fields yields a
// *model.MalformedCompletionError and no partial result.
func (e *Engine) Classify(ctx context.Context, profile json.RawMessage) (*model.Analysis, error) {
	if len(strings.TrimSpace(string(profile))) == 0 {
		return nil, model.NewValidationError("profile", "must not be empty")
	}

	text, err := e.run(ctx, ModeClassify, map[string]any{"Profile": indentJSON(profile)}, analysisFields)
	if err != nil {
		return nil, err
	}
	return decodeAnalysis(text)
}

// Summarize writes one markdown summary covering every candidate. All
// candidates go into a single prompt.
func (e *Engine) Summarize(ctx context.Context, candidates []model.Candidate) (*model.Summary, error) {
	if len(candidates) == 0 {
		return nil, model.NewValidationError("candidates", "nothing to summarize")
	}

	payload, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "enrich: marshal candidates")
	}

	text, err := e.run(ctx, ModeSummarize, map[string]any{
		"Candidates": string(payload),
		"Count":      len(candidates),
	}, nil)
	if err != nil {
		return nil, err
	}
	return &model.Summary{Markdown: text}, nil
}

// ComposeOutreach writes a personalized email (subject and body) to one
// candidate, signed by sender when given.
func (e *Engine) ComposeOutreach(ctx context.Context, candidate model.Candidate, sender string) (*model.Outreach, error) {
	payload, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "enrich: marshal candidate")
	}

	text, err := e.run(ctx, ModeOutreach, map[string]any{
		"Candidate": string(payload),
		"Title":     candidate.DisplayTitle(),
		"Sender":    strings.TrimSpace(sender),
	}, nil)
	if err != nil {
		return nil, err
	}
	return &model.Outreach{Email: text}, nil
}

// run renders the prompt for mode and returns the trimmed completion. Any
// backend failure or an empty completion is an *model.EnrichmentError.
func (e *Engine) run(ctx context.Context, mode Mode, data any, jsonFields []string) (string, error) {
	prompt, err := e.prompts.render(mode, data)
	if err != nil {
		return "", err
	}

	req := CompletionRequest{
		Mode:        mode,
		System:      e.prompts.System,
		Prompt:      prompt,
		Temperature: mode.Temperature(),
		JSONFields:  jsonFields,
	}

	text, err := resilience.DoVal(ctx, resilience.Policy("llm", string(mode), e.maxAttempts),
		func(ctx context.Context) (string, error) {
			if e.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, e.timeout)
				defer cancel()
			}
			return e.completer.Complete(ctx, req)
		})
	if err != nil {
		zap.L().Warn("enrich: completion failed",
			zap.String("mode", string(mode)),
			zap.String("error", resilience.Redact(err.Error())),
		)
		return "", &model.EnrichmentError{Mode: string(mode), Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &model.EnrichmentError{Mode: string(mode), Err: eris.New("empty completion")}
	}
	return text, nil
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
