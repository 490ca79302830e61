package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const geminiClientErrorFormat = "create gemini client: %w"

var ErrEmptyCandidates = errors.New("gemini returned no candidates")

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient builds a Gemini API client. baseURL overrides the
// endpoint and is empty in production.
func NewGeminiClient(ctx context.Context, apiKey, baseURL, model string) (*GeminiClient, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	cli, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf(geminiClientErrorFormat, err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(temperature))},
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCandidates
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	trimmed := strings.TrimSpace(text.String())
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	return trimmed, nil
}
