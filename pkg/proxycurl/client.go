// Package proxycurl fetches public professional profiles from the Proxycurl
// API.
package proxycurl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://nubela.co/proxycurl/api/v2"

// Cache policies for the use_cache parameter.
const (
	CacheIfPresent = "if-present"
	CacheIfRecent  = "if-recent"
)

// Client fetches profile documents.
type Client interface {
	// Profile returns the profile document for profileURL exactly as the API
	// sent it.
	Profile(ctx context.Context, profileURL string) (json.RawMessage, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithCachePolicy sets the use_cache parameter. Default: if-present.
func WithCachePolicy(policy string) Option {
	return func(c *httpClient) {
		c.cachePolicy = policy
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	cachePolicy string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Proxycurl client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		cachePolicy: CacheIfPresent,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Profile(ctx context.Context, profileURL string) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "proxycurl: rate limit")
		}
	}

	params := url.Values{}
	params.Set("url", profileURL)
	if c.cachePolicy != "" {
		params.Set("use_cache", c.cachePolicy)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/linkedin?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "proxycurl: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "proxycurl: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "proxycurl: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("proxycurl", resp.StatusCode, body)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, eris.Wrap(err, "proxycurl: profile is not a JSON object")
	}

	return json.RawMessage(body), nil
}
