package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Tavily     TavilyConfig     `yaml:"tavily" mapstructure:"tavily"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Proxycurl  ProxycurlConfig  `yaml:"proxycurl" mapstructure:"proxycurl"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
}

// SearchConfig selects and tunes the search provider.
type SearchConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	MaxResults   int     `yaml:"max_results" mapstructure:"max_results"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// ProxycurlConfig holds profile enrichment API settings.
type ProxycurlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects the completion backend and prompt overrides.
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	PromptsFile string `yaml:"prompts_file" mapstructure:"prompts_file"`
	Sender      string `yaml:"sender" mapstructure:"sender"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OpenAIConfig holds settings for any OpenAI-compatible chat completions API.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NotionConfig holds Notion credentials for lead export.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings for lead export.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// HTTPConfig bounds outbound calls.
type HTTPConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the outbound call timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSecs) * time.Second
}

// Rates returns the built-in pricing with any configured overrides applied.
func (c *Config) Rates() cost.Rates {
	return cost.DefaultRates().Merge(c.Pricing)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.max_attempts", 1)
	v.SetDefault("search.rate_limit_rps", 2)
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("proxycurl.base_url", "https://nubela.co/proxycurl/api/v2")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/leads_db.json")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Keys that only come from the environment must be bound explicitly so
	// Unmarshal sees them without a config file entry.
	for _, key := range secretKeys {
		_ = v.BindEnv(key)
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}

	return &cfg, nil
}

// defaultModels maps each completion backend to the model used when
// llm.model is unset.
var defaultModels = map[string]string{
	"anthropic": "claude-haiku-4-5-20251001",
	"openai":    "gpt-3.5-turbo",
	"gemini":    "gemini-2.5-flash",
}

// secretKeys are viper keys holding credentials.
var secretKeys = []string{
	"tavily.key",
	"jina.key",
	"proxycurl.key",
	"anthropic.key",
	"openai.key",
	"gemini.key",
	"notion.token",
	"store.database_url",
}

// Validate checks that every setting the given mode needs is present. All
// problems are reported together as a model.ConfigurationError.
//
// Modes: search, analyze, leads, serve, mcp, export:<format>.
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	needSearch := func() {
		switch c.Search.Provider {
		case "tavily":
			require(c.Tavily.Key != "", "tavily.key is required")
		case "jina":
			require(c.Jina.Key != "", "jina.key is required")
		default:
			problems = append(problems, fmt.Sprintf("search.provider %q is not supported", c.Search.Provider))
		}
		require(c.Search.MaxResults >= 1, "search.max_results must be >= 1")
		require(c.Search.MaxAttempts >= 1, "search.max_attempts must be >= 1")
	}
	needLLM := func() {
		switch c.LLM.Provider {
		case "anthropic":
			require(c.Anthropic.Key != "", "anthropic.key is required")
		case "openai":
			require(c.OpenAI.Key != "", "openai.key is required")
		case "gemini":
			require(c.Gemini.Key != "", "gemini.key is required")
		default:
			problems = append(problems, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
		}
		require(c.LLM.MaxTokens > 0, "llm.max_tokens must be > 0")
	}
	needProfile := func() {
		require(c.Proxycurl.Key != "", "proxycurl.key is required")
	}
	needStore := func() {
		switch c.Store.Driver {
		case "json", "sqlite":
			require(c.Store.Path != "", "store.path is required")
		case "postgres":
			require(c.Store.DatabaseURL != "", "store.database_url is required")
		default:
			problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
	}

	require(c.HTTP.TimeoutSecs > 0, "http.timeout_secs must be > 0")

	switch {
	case mode == "search":
		needSearch()
		needLLM()
		needStore()
	case mode == "analyze":
		needProfile()
		needLLM()
		needStore()
	case mode == "leads":
		needStore()
	case mode == "serve", mode == "mcp":
		needSearch()
		needProfile()
		needLLM()
		needStore()
		if mode == "serve" {
			require(c.Server.Port > 0, "server.port must be > 0")
		}
	case strings.HasPrefix(mode, "export:"):
		needStore()
		switch format := strings.TrimPrefix(mode, "export:"); format {
		case "csv", "xlsx":
		case "notion":
			require(c.Notion.Token != "", "notion.token is required")
			require(c.Notion.LeadDB != "", "notion.lead_db is required")
		case "salesforce":
			require(c.Salesforce.ClientID != "", "salesforce.client_id is required")
			require(c.Salesforce.Username != "", "salesforce.username is required")
			require(c.Salesforce.KeyPath != "", "salesforce.key_path is required")
		default:
			problems = append(problems, fmt.Sprintf("unknown export format %q", format))
		}
	default:
		return &model.ConfigurationError{Problems: []string{fmt.Sprintf("unknown mode %q", mode)}}
	}

	if len(problems) > 0 {
		return &model.ConfigurationError{Problems: problems}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
