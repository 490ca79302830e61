package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// EmbeddedRootConfigurationReference identifies the embedded fallback configuration source.
	EmbeddedRootConfigurationReference = "embedded default configuration"

	explicitConfigurationReadErrorFormat = "read explicit configuration %s: %w"
	workingDirectoryErrorFormat          = "determine working directory: %w"
	configurationFileName                = "config.yaml"
	applicationDirectoryName             = "episode-kit"
	homeApplicationDirectoryName         = ".episode-kit"
	homeEnvironmentVariableName          = "HOME"
	xdgConfigHomeEnvironmentVariableName = "XDG_CONFIG_HOME"
)

//go:embed default_root_configuration.yaml
var embeddedRootConfigurationBytes []byte

// RootConfigurationSource holds the raw configuration data and its origin.
type RootConfigurationSource struct {
	Reference string
	Content   []byte
}

// RootConfigurationLoader locates the configuration file. Search order:
// explicit path, ./config.yaml, $XDG_CONFIG_HOME/episode-kit/config.yaml,
// $HOME/.episode-kit/config.yaml, then the embedded default.
type RootConfigurationLoader struct {
	workingDirectory string
	xdgConfigHome    string
	homeDirectory    string
	readFile         func(string) ([]byte, error)
}

func NewRootConfigurationLoader(workingDirectory, xdgConfigHome, homeDirectory string) RootConfigurationLoader {
	return RootConfigurationLoader{
		workingDirectory: workingDirectory,
		xdgConfigHome:    xdgConfigHome,
		homeDirectory:    homeDirectory,
		readFile:         os.ReadFile,
	}
}

// NewDefaultRootConfigurationLoader builds a loader from the process working directory and environment.
func NewDefaultRootConfigurationLoader() (RootConfigurationLoader, error) {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return RootConfigurationLoader{}, fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	return NewRootConfigurationLoader(
		workingDirectory,
		os.Getenv(xdgConfigHomeEnvironmentVariableName),
		os.Getenv(homeEnvironmentVariableName),
	), nil
}

// Load returns the first readable candidate. A missing or unreadable
// explicit path falls through to the next location; any other read error on
// it is reported.
func (loader RootConfigurationLoader) Load(explicitPath string) (RootConfigurationSource, error) {
	if explicitPath != "" {
		content, err := loader.readFile(explicitPath)
		switch {
		case err == nil:
			return RootConfigurationSource{Reference: explicitPath, Content: content}, nil
		case !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission):
			return RootConfigurationSource{}, fmt.Errorf(explicitConfigurationReadErrorFormat, explicitPath, err)
		}
	}
	for _, candidate := range loader.searchPaths() {
		content, err := loader.readFile(candidate)
		if err != nil {
			continue
		}
		return RootConfigurationSource{Reference: candidate, Content: content}, nil
	}
	return RootConfigurationSource{Reference: EmbeddedRootConfigurationReference, Content: embeddedRootConfigurationBytes}, nil
}

func (loader RootConfigurationLoader) searchPaths() []string {
	var paths []string
	if loader.workingDirectory != "" {
		paths = append(paths, filepath.Join(loader.workingDirectory, configurationFileName))
	}
	if loader.xdgConfigHome != "" {
		paths = append(paths, filepath.Join(loader.xdgConfigHome, applicationDirectoryName, configurationFileName))
	}
	if loader.homeDirectory != "" {
		paths = append(paths, filepath.Join(loader.homeDirectory, homeApplicationDirectoryName, configurationFileName))
	}
	return paths
}

// Resolve loads and parses the configuration in one step.
func Resolve(explicitPath string) (Root, string, error) {
	loader, err := NewDefaultRootConfigurationLoader()
	if err != nil {
		return Root{}, "", err
	}
	source, err := loader.Load(explicitPath)
	if err != nil {
		return Root{}, "", err
	}
	root, err := LoadRoot(source)
	if err != nil {
		return Root{}, source.Reference, err
	}
	return root, source.Reference, nil
}
