package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_401", in: genai.APIError{Code: 401}, wantTransient: false},
		{name: "plain", in: errors.New("boom"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTransient, resilience.IsTransient(classifyErr(tt.in)))
		})
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestGenerate_JSONMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gen, ok := body["generationConfig"].(map[string]any)
		require.True(t, ok, "generationConfig present")
		assert.Equal(t, "application/json", gen["responseMimeType"])
		assert.NotNil(t, gen["responseSchema"])
		assert.InDelta(t, 0.7, gen["temperature"], 1e-6)
		assert.NotNil(t, body["systemInstruction"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"category\":\"HOT\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 7}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	temp := float32(0.7)
	resp, err := client.Generate(context.Background(), Request{
		Model:       "gemini-2.5-flash",
		System:      "You are a sales analyst.",
		Prompt:      "Classify this lead.",
		Temperature: &temp,
		Schema: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{"category": {Type: genai.TypeString}},
			Required:   []string{"category"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"category":"HOT"}`, resp.Text)
	assert.Equal(t, int32(12), resp.InputTokens)
	assert.Equal(t, int32(7), resp.OutputTokens)
}

func TestGenerate_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Model: "gemini-2.5-flash", Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "gemini: generate content")
}

func TestGenerate_HTTPClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Generate(context.Background(), Request{Model: "gemini-2.5-flash", Prompt: "Summarize."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")
	assert.Less(t, time.Since(start), time.Second)
}
