package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/proxycurl"
)

// Profiles fetches profile documents through Proxycurl.
type Profiles struct {
	client proxycurl.Client
	opts   Options
}

// NewProfiles returns a ProfileFetcher backed by client.
func NewProfiles(client proxycurl.Client, opts Options) *Profiles {
	return &Profiles{client: client, opts: opts}
}

// FetchProfile validates profileURL and returns the provider's document
// unchanged.
func (p *Profiles) FetchProfile(ctx context.Context, profileURL string) (json.RawMessage, error) {
	profileURL = strings.TrimSpace(profileURL)
	if err := ValidateProfileURL(profileURL); err != nil {
		return nil, err
	}

	ctx, cancel := p.opts.withTimeout(ctx)
	defer cancel()

	doc, err := resilience.DoVal(ctx, resilience.Policy("proxycurl", "profile", p.opts.MaxAttempts),
		func(ctx context.Context) (json.RawMessage, error) {
			return p.client.Profile(ctx, profileURL)
		})
	if err != nil {
		return nil, connectorError("proxycurl", err)
	}

	zap.L().Debug("source: proxycurl profile fetched",
		zap.Int("bytes", len(doc)),
		zap.Float64("estimated_cost_usd", cost.Default().Request("proxycurl")),
	)
	return doc, nil
}

// ValidateProfileURL accepts absolute http and https URLs with a host.
func ValidateProfileURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return model.NewValidationError("profile_url", "must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.NewValidationError("profile_url", "must be an http(s) URL")
	}
	return nil
}
