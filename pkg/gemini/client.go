// Package gemini wraps the Google Gen AI SDK for single-prompt completions.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Client generates text from a single prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is a single-turn generation request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float32
	MaxTokens   int32
	// Schema, when set, switches the model to JSON output constrained to it.
	Schema *genai.Schema
}

// Response carries the generated text and token usage.
type Response struct {
	Text         string
	InputTokens  int32
	OutputTokens int32
}

// Option configures the client.
type Option func(*genai.ClientConfig)

// WithBaseURL overrides the Gemini API base URL (proxies, tests).
func WithBaseURL(url string) Option {
	return func(cc *genai.ClientConfig) {
		if url = strings.TrimSpace(url); url != "" {
			cc.HTTPOptions.BaseURL = url
		}
	}
}

// WithHTTPClient sets the http.Client the SDK sends requests through. Its
// Timeout bounds every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(cc *genai.ClientConfig) {
		if hc != nil {
			cc.HTTPClient = hc
		}
	}
}

type sdkClient struct {
	client *genai.Client
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	for _, o := range opts {
		o(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &sdkClient{client: client}, nil
}

func (c *sdkClient) Generate(ctx context.Context, req Request) (*Response, error) {
	cfg := &genai.GenerateContentConfig{
		CandidateCount:  1,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, classifyErr(eris.Wrap(err, "gemini: generate content"))
	}

	out := &Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.InputTokens = resp.UsageMetadata.PromptTokenCount
		out.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}

// classifyErr marks rate limiting and server failures as transient.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code/100 == 5) {
		return resilience.NewTransientError(err, apiErr.Code)
	}
	return err
}
