// Package source turns a search keyword or a profile URL into lead data by
// calling an external search or profile provider.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// MaxResults is the most candidates a single search returns.
const MaxResults = 10

// Connector fetches candidate leads for a keyword. It issues one search per
// call and never panics; failures come back as *model.ConnectorError.
type Connector interface {
	Search(ctx context.Context, keyword, region string) ([]model.Candidate, error)
}

// ProfileFetcher fetches an opaque profile document.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, profileURL string) (json.RawMessage, error)
}

// Options tunes a connector.
type Options struct {
	// MaxResults is clamped to [1, MaxResults].
	MaxResults int
	// MaxAttempts is the number of tries for transient failures. Default 1.
	MaxAttempts int
	// Timeout bounds each call. Zero means no extra deadline.
	Timeout time.Duration
}

func (o Options) maxResults() int {
	if o.MaxResults <= 0 || o.MaxResults > MaxResults {
		return MaxResults
	}
	return o.MaxResults
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// Query composes the provider query for keyword and an optional region.
func Query(keyword, region string) string {
	keyword = strings.TrimSpace(keyword)
	region = strings.TrimSpace(region)
	if region == "" {
		return keyword
	}
	return keyword + " companies in " + region
}

func validateKeyword(keyword string) error {
	if strings.TrimSpace(keyword) == "" {
		return model.NewValidationError("keyword", "must not be empty")
	}
	return nil
}

// connectorError wraps a provider failure, lifting the HTTP status when the
// failure carried one.
func connectorError(provider string, err error) *model.ConnectorError {
	ce := &model.ConnectorError{Provider: provider, Err: err}
	var te *resilience.TransientError
	if errors.As(err, &te) {
		ce.StatusCode = te.StatusCode
	}
	return ce
}
