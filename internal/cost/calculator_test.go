package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"haiku":  {Input: 0.80, Output: 4.00},
			"sonnet": {Input: 3.00, Output: 15.00},
		},
		Requests: map[string]float64{"tavily": 0.008},
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		model  string
		input  int64
		output int64
		want   float64
	}{
		{"haiku one million each", "haiku", 1_000_000, 1_000_000, 4.80},
		{"sonnet input only", "sonnet", 1_000_000, 0, 3.00},
		{"small call", "haiku", 1000, 500, 0.0008 + 0.002},
		{"unknown model", "llama", 1_000_000, 1_000_000, 0},
		{"zero tokens", "haiku", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Completion(tt.model, tt.input, tt.output), 1e-9)
		})
	}
}

func TestRequest(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 0.008, calc.Request("tavily"), 1e-12)
	assert.InDelta(t, 0.008, calc.Request("Tavily"), 1e-12)
	assert.Zero(t, calc.Request("bing"))
}

func TestMerge(t *testing.T) {
	t.Parallel()
	merged := testRates().Merge(Rates{
		Models: map[string]ModelRate{
			"haiku": {Input: 1.00, Output: 5.00},
			"empty": {},
		},
		Requests: map[string]float64{"JINA": 0.003, "tavily": 0},
	})

	assert.Equal(t, ModelRate{Input: 1.00, Output: 5.00}, merged.Models["haiku"])
	assert.Equal(t, ModelRate{Input: 3.00, Output: 15.00}, merged.Models["sonnet"])
	assert.NotContains(t, merged.Models, "empty")
	assert.InDelta(t, 0.003, merged.Requests["jina"], 1e-12)
	assert.InDelta(t, 0.008, merged.Requests["tavily"], 1e-12, "zero overrides are ignored")
}

func TestDefaultRates_CoverConfiguredDefaults(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()
	for _, model := range []string{"claude-haiku-4-5-20251001", "gpt-3.5-turbo", "gemini-2.5-flash"} {
		assert.Contains(t, rates.Models, model)
	}
	for _, provider := range []string{"tavily", "jina", "proxycurl"} {
		assert.Positive(t, rates.Requests[provider])
	}
}

func TestReplaceDefault(t *testing.T) {
	restore := ReplaceDefault(NewCalculator(testRates()))
	assert.InDelta(t, 4.80, Default().Completion("haiku", 1_000_000, 1_000_000), 1e-9)

	restore()
	assert.Zero(t, Default().Completion("haiku", 1_000_000, 1_000_000))
	assert.Positive(t, Default().Completion("claude-haiku-4-5-20251001", 1000, 1000))
}
