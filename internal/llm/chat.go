package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	chatCompletionsPath   = "/chat/completions"
	userRole              = "user"
	bodyPreviewLimit      = 512
	httpStatusErrorFormat = "llm http error %d: %s"
	decodeErrorFormat     = "decode chat completion: %w (body=%s)"
	refusalErrorFormat    = "chat completion refusal: %s"
	emptyContentFormat    = "%w (finish_reason=%s body=%s)"
)

var (
	ErrNoChoices    = errors.New("chat completion returned no choices")
	ErrEmptyContent = errors.New("chat completion returned empty message")
)

// ChatClient speaks the chat-completions protocol shared by OpenAI and
// DeepSeek.
type ChatClient struct {
	HTTPBaseURL     string
	APIKey          string
	ModelIdentifier string
	HTTPClient      *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Temperature is a pointer so that 0 is sent rather than omitted.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Refusal json.RawMessage `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c ChatClient) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload, marshalErr := json.Marshal(chatCompletionRequest{
		Model:       c.ModelIdentifier,
		Messages:    []chatMessage{{Role: userRole, Content: prompt}},
		Temperature: &temperature,
	})
	if marshalErr != nil {
		return "", marshalErr
	}

	httpRequest, buildErr := http.NewRequestWithContext(ctx, http.MethodPost, c.HTTPBaseURL+chatCompletionsPath, bytes.NewReader(payload))
	if buildErr != nil {
		return "", buildErr
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	httpResponse, httpErr := httpClient.Do(httpRequest)
	if httpErr != nil {
		return "", httpErr
	}
	defer func(closer io.ReadCloser) { _ = closer.Close() }(httpResponse.Body)

	body, readErr := io.ReadAll(httpResponse.Body)
	if readErr != nil {
		return "", readErr
	}
	preview := truncateForLog(string(body), bodyPreviewLimit)
	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf(httpStatusErrorFormat, httpResponse.StatusCode, preview)
	}

	var completion chatCompletionResponse
	if decodeErr := json.Unmarshal(body, &completion); decodeErr != nil {
		return "", fmt.Errorf(decodeErrorFormat, decodeErr, preview)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w (body=%s)", ErrNoChoices, preview)
	}

	choice := completion.Choices[0]
	if refusal := strings.TrimSpace(textOf(choice.Message.Refusal)); refusal != "" {
		return "", fmt.Errorf(refusalErrorFormat, refusal)
	}
	content := strings.TrimSpace(textOf(choice.Message.Content))
	if content == "" {
		return "", fmt.Errorf(emptyContentFormat, ErrEmptyContent, choice.FinishReason, preview)
	}
	return content, nil
}

// textOf accepts either a plain JSON string or an array of content parts
// carrying "text" fields.
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			fragments = append(fragments, trimmed)
		}
	}
	return strings.Join(fragments, "\n")
}

func truncateForLog(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
