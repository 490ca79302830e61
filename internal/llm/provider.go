package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/episode-kit/internal/config"
)

// ProviderKind selects the wire protocol used to reach a backend.
type ProviderKind int

const (
	ProviderUnknown ProviderKind = iota
	ProviderOpenAI
	ProviderDeepSeek
	ProviderGemini
)

const (
	providerKindOpenAI   = "openai"
	providerKindDeepSeek = "deepseek"
	providerKindGemini   = "gemini"

	openAIDefaultBaseURL   = "https://api.openai.com/v1"
	deepSeekDefaultBaseURL = "https://api.deepseek.com"
	openAIDefaultModel     = "gpt-4o"
	deepSeekDefaultModel   = "deepseek-chat"
	geminiDefaultModel     = "gemini-2.5-pro"

	openAIDefaultKeyEnv   = "OPENAI_API_KEY"
	deepSeekDefaultKeyEnv = "DEEPSEEK_API_KEY"
	geminiDefaultKeyEnv   = "GEMINI_API_KEY"

	unknownProviderKindErrorFormat = "%w: %q (expected openai, deepseek or gemini)"
	providerKindFieldErrorFormat   = "provider %s: %w"
)

var (
	ErrUnknownProviderKind = errors.New("unknown provider kind")
	ErrMissingAPIKey       = errors.New("missing api key")
)

// ParseProviderKind maps a configuration string onto a ProviderKind.
func ParseProviderKind(value string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case providerKindOpenAI:
		return ProviderOpenAI, nil
	case providerKindDeepSeek:
		return ProviderDeepSeek, nil
	case providerKindGemini:
		return ProviderGemini, nil
	default:
		return ProviderUnknown, fmt.Errorf(unknownProviderKindErrorFormat, ErrUnknownProviderKind, value)
	}
}

func (k ProviderKind) String() string {
	switch k {
	case ProviderOpenAI:
		return providerKindOpenAI
	case ProviderDeepSeek:
		return providerKindDeepSeek
	case ProviderGemini:
		return providerKindGemini
	default:
		return "unknown"
	}
}

func (k ProviderKind) defaultBaseURL() string {
	switch k {
	case ProviderOpenAI:
		return openAIDefaultBaseURL
	case ProviderDeepSeek:
		return deepSeekDefaultBaseURL
	default:
		return ""
	}
}

func (k ProviderKind) defaultModel() string {
	switch k {
	case ProviderOpenAI:
		return openAIDefaultModel
	case ProviderDeepSeek:
		return deepSeekDefaultModel
	case ProviderGemini:
		return geminiDefaultModel
	default:
		return ""
	}
}

func (k ProviderKind) defaultKeyEnv() string {
	switch k {
	case ProviderOpenAI:
		return openAIDefaultKeyEnv
	case ProviderDeepSeek:
		return deepSeekDefaultKeyEnv
	case ProviderGemini:
		return geminiDefaultKeyEnv
	default:
		return ""
	}
}

// ProviderConfig is a fully resolved backend: kind parsed, defaults filled
// in and the key read from the environment.
type ProviderConfig struct {
	Name    string
	Kind    ProviderKind
	APIKey  string
	BaseURL string
	Model   string
}

// ResolveProvider turns the YAML provider entry into a ProviderConfig.
// lookupEnv is usually os.LookupEnv.
func ResolveProvider(provider config.Provider, lookupEnv func(string) (string, bool)) (ProviderConfig, error) {
	kindValue := provider.Kind
	if strings.TrimSpace(kindValue) == "" {
		kindValue = provider.Name
	}
	kind, err := ParseProviderKind(kindValue)
	if err != nil {
		return ProviderConfig{}, fmt.Errorf(providerKindFieldErrorFormat, provider.Name, err)
	}

	resolved := ProviderConfig{
		Name:    strings.TrimSpace(provider.Name),
		Kind:    kind,
		BaseURL: strings.TrimRight(strings.TrimSpace(provider.BaseURL), "/"),
		Model:   strings.TrimSpace(provider.Model),
	}
	if resolved.BaseURL == "" {
		resolved.BaseURL = kind.defaultBaseURL()
	}
	if resolved.Model == "" {
		resolved.Model = kind.defaultModel()
	}

	keyEnv := strings.TrimSpace(provider.APIKeyEnv)
	if keyEnv == "" {
		keyEnv = kind.defaultKeyEnv()
	}
	if value, ok := lookupEnv(keyEnv); ok {
		resolved.APIKey = strings.TrimSpace(value)
	}
	return resolved, nil
}
