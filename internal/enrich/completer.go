package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/gemini"
	"github.com/sells-group/leadgen-cli/pkg/openai"
)

// CompletionRequest is a single prompt submitted to a completion backend.
type CompletionRequest struct {
	Mode        Mode
	System      string
	Prompt      string
	Temperature float64
	// JSONFields, when non-empty, asks the backend for a JSON object with
	// these string fields. Backends without a structured mode ignore it.
	JSONFields []string
}

// Completer returns one text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AnthropicCompleter runs completions on the Anthropic Messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter wraps client.
func NewAnthropicCompleter(client anthropic.Client, model string, maxTokens int64) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temp := req.Temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      req.System,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "enrich: anthropic completion")
	}
	logUsage("anthropic", c.model, req.Mode, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp.Text(), nil
}

// OpenAICompleter runs completions on an OpenAI-compatible chat API.
type OpenAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAICompleter wraps client.
func NewOpenAICompleter(client openai.Client, model string, maxTokens int) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temp := req.Temperature
	chat := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: &temp,
	}
	if c.maxTokens > 0 {
		chat.MaxTokens = &c.maxTokens
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.Message{Role: "system", Content: req.System})
	}
	chat.Messages = append(chat.Messages, openai.Message{Role: "user", Content: req.Prompt})
	if len(req.JSONFields) > 0 {
		chat.ResponseFormat = openai.JSONObject
	}

	resp, err := c.client.ChatCompletion(ctx, chat)
	if err != nil {
		return "", eris.Wrap(err, "enrich: openai completion")
	}
	logUsage("openai", c.model, req.Mode, int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens))
	return resp.Text(), nil
}

// GeminiCompleter runs completions on the Gemini API.
type GeminiCompleter struct {
	client    gemini.Client
	model     string
	maxTokens int32
}

// NewGeminiCompleter wraps client.
func NewGeminiCompleter(client gemini.Client, model string, maxTokens int32) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temp := float32(req.Temperature)
	resp, err := c.client.Generate(ctx, gemini.Request{
		Model:       c.model,
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: &temp,
		MaxTokens:   c.maxTokens,
		Schema:      objectSchema(req.JSONFields),
	})
	if err != nil {
		return "", eris.Wrap(err, "enrich: gemini completion")
	}
	logUsage("gemini", c.model, req.Mode, int64(resp.InputTokens), int64(resp.OutputTokens))
	return resp.Text, nil
}

// objectSchema describes a JSON object whose fields are all required strings.
func objectSchema(fields []string) *genai.Schema {
	if len(fields) == 0 {
		return nil
	}
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         fields,
		PropertyOrdering: fields,
	}
}
