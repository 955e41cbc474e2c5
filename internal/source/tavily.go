package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/tavily"
)

// Tavily searches with the Tavily API at advanced depth.
type Tavily struct {
	client tavily.Client
	opts   Options
}

// NewTavily returns a Connector backed by client.
func NewTavily(client tavily.Client, opts Options) *Tavily {
	return &Tavily{client: client, opts: opts}
}

// Search implements Connector.
func (t *Tavily) Search(ctx context.Context, keyword, region string) ([]model.Candidate, error) {
	if err := validateKeyword(keyword); err != nil {
		return nil, err
	}

	ctx, cancel := t.opts.withTimeout(ctx)
	defer cancel()

	req := tavily.SearchRequest{
		Query:       Query(keyword, region),
		SearchDepth: tavily.DepthAdvanced,
		MaxResults:  t.opts.maxResults(),
	}

	resp, err := resilience.DoVal(ctx, resilience.Policy("tavily", "search", t.opts.MaxAttempts),
		func(ctx context.Context) (*tavily.SearchResponse, error) {
			return t.client.Search(ctx, req)
		})
	if err != nil {
		return nil, connectorError("tavily", err)
	}

	results := resp.Results
	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	candidates := make([]model.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, model.Candidate{
			Title:   CleanText(r.Title),
			URL:     r.URL,
			Content: CleanText(r.Content),
			Score:   r.Score,
			Extra:   r.Extra,
		})
	}

	zap.L().Debug("source: tavily search complete",
		zap.String("query", req.Query),
		zap.Int("results", len(candidates)),
		zap.Float64("estimated_cost_usd", cost.Default().Request("tavily")),
	)
	return candidates, nil
}
