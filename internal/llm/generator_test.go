package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/episode-kit/internal/pipeline"
)

func TestNewDispatchesChatProviders(t *testing.T) {
	received := map[string]any{}
	server := chatServer(t, http.StatusOK, completion("ok", "stop"), &received)

	core, logs := observer.New(zap.DebugLevel)
	generator, err := New(context.Background(), ProviderConfig{
		Name:    "deepseek",
		Kind:    ProviderDeepSeek,
		APIKey:  "k",
		BaseURL: server.URL,
		Model:   "deepseek-chat",
	}, zap.New(core))
	require.NoError(t, err)

	text, err := generator.Generate(context.Background(), "hello", 0.3)
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.Equal(t, 0.3, received["temperature"])

	require.Equal(t, 1, logs.FilterMessage("start generating").Len())
	require.Equal(t, 1, logs.FilterMessage("end generating").Len())
	start := logs.FilterMessage("start generating").All()[0].ContextMap()
	require.Equal(t, "deepseek", start["provider"])
	require.Equal(t, "deepseek-chat", start["model"])
}

func TestNewDispatchesGemini(t *testing.T) {
	var (
		path    string
		apiKey  string
		request map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" generated "}]}}]}`))
	}))
	t.Cleanup(server.Close)

	generator, err := New(context.Background(), ProviderConfig{
		Name:    "gemini",
		Kind:    ProviderGemini,
		APIKey:  "gk",
		BaseURL: server.URL,
		Model:   "gemini-test",
	}, nil)
	require.NoError(t, err)

	text, err := generator.Generate(context.Background(), "prompt", 0.5)
	require.NoError(t, err)
	require.Equal(t, "generated", text)
	require.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), path)
	require.Equal(t, "gk", apiKey)

	generationConfig, ok := request["generationConfig"].(map[string]any)
	require.True(t, ok, "request: %v", request)
	require.Equal(t, 0.5, generationConfig["temperature"])
}

type recordingGenerator struct {
	prompt      string
	temperature float64
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	g.prompt = prompt
	g.temperature = temperature
	return "answer", nil
}

func TestAdapterComposesPromptAndTemperature(t *testing.T) {
	recorder := &recordingGenerator{}
	adapter := Adapter{Generator: recorder, DefaultTemp: 0.7}

	resp, err := adapter.Chat(context.Background(), pipeline.LLMRequest{SystemPrompt: " sys ", UserPrompt: " user "})
	require.NoError(t, err)
	require.Equal(t, "answer", resp.RawText)
	require.Equal(t, "sys\n\nuser", recorder.prompt)
	require.Equal(t, 0.7, recorder.temperature)

	zero := 0.0
	_, err = adapter.Chat(context.Background(), pipeline.LLMRequest{UserPrompt: "u", Temperature: &zero})
	require.NoError(t, err)
	require.Equal(t, "u", recorder.prompt)
	require.Equal(t, 0.0, recorder.temperature)
}
