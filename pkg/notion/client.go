// Package notion keeps a Notion database of exported leads: it lists the lead
// IDs a database already holds and adds one page per new lead.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// LeadIDProperty is the rich text property holding a lead's store ID. Every
// lead page carries it, and LeadIDs reads it back.
const LeadIDProperty = "Lead ID"

// queryPageSize is the largest page the query endpoint returns.
const queryPageSize = 100

// Client reads and writes lead pages.
type Client interface {
	// LeadIDs returns the store ID of every lead page in the database dbID.
	LeadIDs(ctx context.Context, dbID string) (map[string]bool, error)
	// CreateLeadPage adds a page to dbID. props must set LeadIDProperty.
	CreateLeadPage(ctx context.Context, dbID string, props notionapi.Properties) (notionapi.ObjectID, error)
}

// api is the part of the Notion SDK the client calls.
type api interface {
	QueryDatabase(ctx context.Context, dbID notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type sdkAPI struct {
	inner *notionapi.Client
}

func (s sdkAPI) QueryDatabase(ctx context.Context, dbID notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return s.inner.Database.Query(ctx, dbID, req)
}

func (s sdkAPI) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return s.inner.Page.Create(ctx, req)
}

// ClientOption configures the Notion client.
type ClientOption func(*leadClient)

// WithRateLimit overrides the default rate limit (3 req/s). Zero disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *leadClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type leadClient struct {
	api     api
	limiter *rate.Limiter
}

// NewClient creates a client authenticated with an integration token.
func NewClient(token string, opts ...ClientOption) Client {
	return newLeadClient(sdkAPI{inner: notionapi.NewClient(notionapi.Token(token))}, opts...)
}

func newLeadClient(a api, opts ...ClientOption) *leadClient {
	c := &leadClient{api: a, limiter: rate.NewLimiter(3, 1)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *leadClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// LeadIDs pages through every page with a non-empty LeadIDProperty.
func (c *leadClient) LeadIDs(ctx context.Context, dbID string) (map[string]bool, error) {
	ids := make(map[string]bool)
	var cursor notionapi.Cursor
	for {
		if err := c.wait(ctx); err != nil {
			return nil, eris.Wrap(err, "notion: rate limit")
		}
		resp, err := c.api.QueryDatabase(ctx, notionapi.DatabaseID(dbID), &notionapi.DatabaseQueryRequest{
			Filter: notionapi.PropertyFilter{
				Property: LeadIDProperty,
				RichText: &notionapi.TextFilterCondition{IsNotEmpty: true},
			},
			StartCursor: cursor,
			PageSize:    queryPageSize,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query lead ids in %s", dbID)
		}
		for _, p := range resp.Results {
			if id := RichText(p.Properties[LeadIDProperty]); id != "" {
				ids[id] = true
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return ids, nil
		}
		cursor = resp.NextCursor
	}
}

func (c *leadClient) CreateLeadPage(ctx context.Context, dbID string, props notionapi.Properties) (notionapi.ObjectID, error) {
	if RichText(props[LeadIDProperty]) == "" {
		return "", eris.Errorf("notion: lead page needs a %q property", LeadIDProperty)
	}
	if err := c.wait(ctx); err != nil {
		return "", eris.Wrap(err, "notion: rate limit")
	}
	page, err := c.api.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrapf(err, "notion: create lead page in %s", dbID)
	}
	return page.ID, nil
}
