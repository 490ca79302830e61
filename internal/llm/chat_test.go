package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, payload any, received *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if received != nil {
			if err := json.NewDecoder(request.Body).Decode(received); err != nil {
				t.Errorf("decode request: %v", err)
			}
			(*received)["_path"] = request.URL.Path
			(*received)["_auth"] = request.Header.Get("Authorization")
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		if err := json.NewEncoder(writer).Encode(payload); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func completion(content any, finishReason string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finishReason,
			},
		},
	}
}

func TestChatClientSendsExplicitZeroTemperature(t *testing.T) {
	received := map[string]any{}
	server := chatServer(t, http.StatusOK, completion("  result  ", "stop"), &received)

	client := ChatClient{HTTPBaseURL: server.URL, APIKey: "test", ModelIdentifier: "deepseek-chat"}
	result, err := client.Generate(context.Background(), "write code", 0)
	require.NoError(t, err)
	require.Equal(t, "result", result)

	require.Equal(t, "/chat/completions", received["_path"])
	require.Equal(t, "Bearer test", received["_auth"])
	require.Equal(t, "deepseek-chat", received["model"])
	require.Contains(t, received, "temperature")
	require.Equal(t, float64(0), received["temperature"])
	require.Equal(t, false, received["stream"])

	messages, ok := received["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	require.Equal(t, map[string]any{"role": "user", "content": "write code"}, messages[0])
}

func TestChatClientStructuredContent(t *testing.T) {
	content := []any{
		map[string]any{"type": "output_text", "text": "first"},
		map[string]any{"type": "output_text", "text": "second"},
	}
	server := chatServer(t, http.StatusOK, completion(content, "stop"), nil)

	client := ChatClient{HTTPBaseURL: server.URL, APIKey: "test"}
	result, err := client.Generate(context.Background(), "p", 0.5)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond", result)
}

func TestChatClientErrors(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		payload  any
		sentinel error
		contains string
	}{
		{name: "http status", status: http.StatusUnauthorized, payload: map[string]any{"error": "bad key"}, contains: "llm http error 401"},
		{name: "no choices", status: http.StatusOK, payload: map[string]any{"choices": []any{}}, sentinel: ErrNoChoices},
		{name: "empty content", status: http.StatusOK, payload: completion("", "length"), sentinel: ErrEmptyContent},
		{name: "refusal", status: http.StatusOK, payload: map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": nil, "refusal": "no"}}},
		}, contains: "refusal: no"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := chatServer(t, testCase.status, testCase.payload, nil)
			client := ChatClient{HTTPBaseURL: server.URL, APIKey: "test"}
			_, err := client.Generate(context.Background(), "p", 0)
			require.Error(t, err)
			if testCase.sentinel != nil {
				require.True(t, errors.Is(err, testCase.sentinel), "got %v", err)
			}
			if testCase.contains != "" {
				require.ErrorContains(t, err, testCase.contains)
			}
		})
	}
}
