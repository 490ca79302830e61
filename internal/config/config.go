package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"
	duplicateProviderErrorFormat             = "duplicate provider name %q"
	blankProviderNameErrorMessage            = "providers[].name must not be blank"
	multipleDefaultProvidersErrorFormat      = "more than one default provider (%s, %s)"
)

type Root struct {
	Common    Common     `yaml:"common"`
	Providers []Provider `yaml:"providers"`
	Renumber  Renumber   `yaml:"renumber"`
}

type Common struct {
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Defaults struct {
		Attempts       int `yaml:"attempts"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"defaults"`
}

// Provider is the YAML form of an LLM backend. The secret itself never
// lives in the file; APIKeyEnv names the environment variable holding it.
type Provider struct {
	Name               string  `yaml:"name"`
	Kind               string  `yaml:"kind"`
	Model              string  `yaml:"model"`
	BaseURL            string  `yaml:"base_url"`
	APIKeyEnv          string  `yaml:"api_key_env"`
	Default            bool    `yaml:"default"`
	DefaultTemperature float64 `yaml:"default_temperature"`
}

type Renumber struct {
	Directory string `yaml:"directory"`
	Prefix    string `yaml:"prefix"`
	Extension string `yaml:"extension"`
	Staged    bool   `yaml:"staged"`
}

// LoadRoot parses the provided configuration source and validates required fields.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	var rootConfiguration Root
	if err := yaml.Unmarshal(source.Content, &rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}

	if err := rootConfiguration.validateProviders(); err != nil {
		return Root{}, err
	}
	return rootConfiguration, nil
}

func (root Root) validateProviders() error {
	seen := make(map[string]bool, len(root.Providers))
	defaultName := ""
	for _, provider := range root.Providers {
		name := strings.TrimSpace(provider.Name)
		if name == "" {
			return errors.New(blankProviderNameErrorMessage)
		}
		if seen[name] {
			return fmt.Errorf(duplicateProviderErrorFormat, name)
		}
		seen[name] = true
		if provider.Default {
			if defaultName != "" {
				return fmt.Errorf(multipleDefaultProvidersErrorFormat, defaultName, name)
			}
			defaultName = name
		}
	}
	return nil
}

// DefaultProvider returns the provider marked default, falling back to the
// first one listed.
func (root Root) DefaultProvider() (Provider, bool) {
	for _, provider := range root.Providers {
		if provider.Default {
			return provider, true
		}
	}
	if len(root.Providers) > 0 {
		return root.Providers[0], true
	}
	return Provider{}, false
}

func (root Root) FindProvider(name string) (Provider, bool) {
	for _, provider := range root.Providers {
		if strings.EqualFold(provider.Name, strings.TrimSpace(name)) {
			return provider, true
		}
	}
	return Provider{}, false
}
