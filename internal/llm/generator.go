package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const missingAPIKeyErrorFormat = "provider %s: %w"

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// New builds the Generator for the provider kind. The returned value logs
// the start and end of each call at debug level.
func New(ctx context.Context, provider ProviderConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider.APIKey == "" {
		return nil, fmt.Errorf(missingAPIKeyErrorFormat, provider.Name, ErrMissingAPIKey)
	}

	var inner Generator
	switch provider.Kind {
	case ProviderOpenAI, ProviderDeepSeek:
		inner = ChatClient{
			HTTPBaseURL:     provider.BaseURL,
			APIKey:          provider.APIKey,
			ModelIdentifier: provider.Model,
		}
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, provider.APIKey, provider.BaseURL, provider.Model)
		if err != nil {
			return nil, err
		}
		inner = client
	default:
		return nil, fmt.Errorf(unknownProviderKindErrorFormat, ErrUnknownProviderKind, provider.Kind.String())
	}

	return loggingGenerator{
		inner:    inner,
		logger:   logger,
		provider: provider.Name,
		model:    provider.Model,
	}, nil
}

type loggingGenerator struct {
	inner    Generator
	logger   *zap.Logger
	provider string
	model    string
}

func (g loggingGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	fields := []zap.Field{
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Float64("temperature", temperature),
	}
	g.logger.Debug("start generating", append(fields, zap.Int("prompt_bytes", len(prompt)))...)
	started := time.Now()
	text, err := g.inner.Generate(ctx, prompt, temperature)
	fields = append(fields, zap.Duration("elapsed", time.Since(started)))
	if err != nil {
		g.logger.Debug("end generating", append(fields, zap.Error(err))...)
		return "", err
	}
	g.logger.Debug("end generating", append(fields, zap.Int("response_bytes", len(text)))...)
	return text, nil
}
