package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/jina"
)

// Jina searches with Jina AI Search. Jina hits carry no relevance score.
type Jina struct {
	client jina.Client
	opts   Options
}

// NewJina returns a Connector backed by client.
func NewJina(client jina.Client, opts Options) *Jina {
	return &Jina{client: client, opts: opts}
}

// Search implements Connector.
func (j *Jina) Search(ctx context.Context, keyword, region string) ([]model.Candidate, error) {
	if err := validateKeyword(keyword); err != nil {
		return nil, err
	}

	ctx, cancel := j.opts.withTimeout(ctx)
	defer cancel()

	query := Query(keyword, region)
	resp, err := resilience.DoVal(ctx, resilience.Policy("jina", "search", j.opts.MaxAttempts),
		func(ctx context.Context) (*jina.SearchResponse, error) {
			return j.client.Search(ctx, query)
		})
	if err != nil {
		return nil, connectorError("jina", err)
	}

	results := resp.Data
	if limit := j.opts.maxResults(); len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]model.Candidate, 0, len(results))
	for _, r := range results {
		c := model.Candidate{
			Title:   CleanText(r.Title),
			URL:     r.URL,
			Content: CleanText(r.Content),
		}
		if c.Content == "" {
			c.Content = CleanText(r.Description)
		}
		if r.Description != "" || r.Date != "" {
			c.Extra = map[string]any{}
			if r.Description != "" {
				c.Extra["description"] = r.Description
			}
			if r.Date != "" {
				c.Extra["date"] = r.Date
			}
		}
		candidates = append(candidates, c)
	}

	zap.L().Debug("source: jina search complete",
		zap.String("query", query),
		zap.Int("results", len(candidates)),
		zap.Float64("estimated_cost_usd", cost.Default().Request("jina")),
	)
	return candidates, nil
}
