package cost

import (
	"strings"
	"sync/atomic"
)

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds pricing for every provider the assistant calls.
type Rates struct {
	// Models maps an LLM model name to its token pricing.
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
	// Requests maps a search or profile provider to its flat per-call price.
	Requests map[string]float64 `yaml:"requests" mapstructure:"requests"`
}

// Calculator computes estimated costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of one LLM call. Unknown models cost 0.
func (c *Calculator) Completion(model string, input, output int64) float64 {
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Request returns the flat price of one call to a search or profile provider.
func (c *Calculator) Request(provider string) float64 {
	return c.rates.Requests[strings.ToLower(provider)]
}

// Merge returns a copy of r with the non-zero entries of override applied.
func (r Rates) Merge(override Rates) Rates {
	out := Rates{
		Models:   make(map[string]ModelRate, len(r.Models)+len(override.Models)),
		Requests: make(map[string]float64, len(r.Requests)+len(override.Requests)),
	}
	for k, v := range r.Models {
		out.Models[k] = v
	}
	for k, v := range override.Models {
		if v.Input > 0 || v.Output > 0 {
			out.Models[k] = v
		}
	}
	for k, v := range r.Requests {
		out.Requests[k] = v
	}
	for k, v := range override.Requests {
		if v > 0 {
			out.Requests[strings.ToLower(k)] = v
		}
	}
	return out
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
			"gpt-3.5-turbo":              {Input: 0.50, Output: 1.50},
			"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
			"gpt-4o":                     {Input: 2.50, Output: 10.00},
			"gemini-2.5-flash":           {Input: 0.30, Output: 2.50},
			"gemini-2.5-pro":             {Input: 1.25, Output: 10.00},
		},
		Requests: map[string]float64{
			"tavily":    0.008,
			"jina":      0.002,
			"proxycurl": 0.01,
		},
	}
}

var global atomic.Pointer[Calculator]

func init() {
	global.Store(NewCalculator(DefaultRates()))
}

// Default returns the process-wide Calculator used by usage logging.
func Default() *Calculator {
	return global.Load()
}

// ReplaceDefault swaps the process-wide Calculator and returns a function
// that restores the previous one.
func ReplaceDefault(c *Calculator) func() {
	prev := global.Swap(c)
	return func() { global.Store(prev) }
}
