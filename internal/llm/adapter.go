package llm

import (
	"context"
	"strings"

	"github.com/temirov/episode-kit/internal/pipeline"
)

// Adapter exposes a Generator as a pipeline.LLMClient.
type Adapter struct {
	Generator   Generator
	DefaultTemp float64
}

func (a Adapter) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	prompt := strings.TrimSpace(req.UserPrompt)
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		prompt = system + "\n\n" + prompt
	}

	temperature := a.DefaultTemp
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	out, err := a.Generator.Generate(ctx, prompt, temperature)
	if err != nil {
		return pipeline.LLMResponse{}, err
	}
	return pipeline.LLMResponse{RawText: out}, nil
}
