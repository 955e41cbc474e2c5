package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/session"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/gemini"
	"github.com/sells-group/leadgen-cli/pkg/jina"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	"github.com/sells-group/leadgen-cli/pkg/openai"
	"github.com/sells-group/leadgen-cli/pkg/proxycurl"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
	"github.com/sells-group/leadgen-cli/pkg/tavily"
)

// needs lists the collaborators a command uses.
type needs struct {
	search  bool
	profile bool
	llm     bool
}

// env holds the wired collaborators for one command invocation.
type env struct {
	Store store.Store
	Deps  session.Deps
}

// Close releases the store.
func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// initEnv validates cfg for mode and wires the collaborators n asks for.
func initEnv(ctx context.Context, mode string, n needs) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	e := &env{Store: st, Deps: session.Deps{Store: st}}

	hc := &http.Client{Timeout: cfg.HTTP.Timeout()}
	opts := source.Options{
		MaxResults:  cfg.Search.MaxResults,
		MaxAttempts: cfg.Search.MaxAttempts,
		Timeout:     cfg.HTTP.Timeout(),
	}

	if n.search {
		e.Deps.Search = newConnector(cfg, hc, opts)
	}
	if n.profile {
		e.Deps.Profiles = source.NewProfiles(
			proxycurl.NewClient(cfg.Proxycurl.Key,
				proxycurl.WithBaseURL(cfg.Proxycurl.BaseURL),
				proxycurl.WithHTTPClient(hc),
			), opts)
	}
	if n.llm {
		eng, err := newEngine(ctx, cfg, hc)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.Deps.Enricher = eng
	}
	return e, nil
}

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Driver:      c.Store.Driver,
		Path:        c.Store.Path,
		DatabaseURL: c.Store.DatabaseURL,
	})
}

func newConnector(c *config.Config, hc *http.Client, opts source.Options) source.Connector {
	if c.Search.Provider == "jina" {
		jopts := []jina.Option{jina.WithSearchBaseURL(c.Jina.SearchBaseURL), jina.WithHTTPClient(hc)}
		if c.Search.RateLimitRPS > 0 {
			jopts = append(jopts, jina.WithRateLimit(c.Search.RateLimitRPS))
		}
		return source.NewJina(jina.NewClient(c.Jina.Key, jopts...), opts)
	}

	topts := []tavily.Option{tavily.WithBaseURL(c.Tavily.BaseURL), tavily.WithHTTPClient(hc)}
	if c.Search.RateLimitRPS > 0 {
		topts = append(topts, tavily.WithRateLimit(c.Search.RateLimitRPS))
	}
	return source.NewTavily(tavily.NewClient(c.Tavily.Key, topts...), opts)
}

func newEngine(ctx context.Context, c *config.Config, hc *http.Client) (*enrich.Engine, error) {
	completer, err := newCompleter(ctx, c, hc)
	if err != nil {
		return nil, err
	}

	engOpts := []enrich.Option{
		enrich.WithMaxAttempts(c.Search.MaxAttempts),
		enrich.WithTimeout(c.HTTP.Timeout()),
	}
	if c.LLM.PromptsFile != "" {
		prompts, err := enrich.LoadPrompts(c.LLM.PromptsFile)
		if err != nil {
			return nil, err
		}
		engOpts = append(engOpts, enrich.WithPrompts(prompts))
	}
	return enrich.NewEngine(completer, engOpts...), nil
}

func newCompleter(ctx context.Context, c *config.Config, hc *http.Client) (enrich.Completer, error) {
	switch c.LLM.Provider {
	case "openai":
		var opts []openai.Option
		if c.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.OpenAI.BaseURL))
		}
		opts = append(opts, openai.WithHTTPClient(hc))
		return enrich.NewOpenAICompleter(openai.NewClient(c.OpenAI.Key, opts...), c.LLM.Model, int(c.LLM.MaxTokens)), nil
	case "gemini":
		var opts []gemini.Option
		if c.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(c.Gemini.BaseURL))
		}
		opts = append(opts, gemini.WithHTTPClient(hc))
		client, err := gemini.NewClient(ctx, c.Gemini.Key, opts...)
		if err != nil {
			return nil, eris.Wrap(err, "init gemini client")
		}
		return enrich.NewGeminiCompleter(client, c.LLM.Model, int32(c.LLM.MaxTokens)), nil
	case "anthropic":
		client := anthropic.NewClient(c.Anthropic.Key, anthropic.WithTimeout(c.HTTP.Timeout()))
		return enrich.NewAnthropicCompleter(client, c.LLM.Model, c.LLM.MaxTokens), nil
	default:
		return nil, eris.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
}

// notionRPS stays under Notion's documented average of 3 requests a second.
const notionRPS = 3

func newNotion(c *config.Config) notion.Client {
	return notion.NewClient(c.Notion.Token, notion.WithRateLimit(notionRPS))
}

func newSalesforce(c *config.Config) (salesforce.Client, error) {
	return salesforce.Connect(salesforce.Credentials{
		LoginURL: c.Salesforce.LoginURL,
		Username: c.Salesforce.Username,
		ClientID: c.Salesforce.ClientID,
		KeyPath:  c.Salesforce.KeyPath,
	}, salesforce.WithRateLimit(5))
}

// shutdownGrace bounds graceful HTTP shutdown.
const shutdownGrace = 10 * time.Second
