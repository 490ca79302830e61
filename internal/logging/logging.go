package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	unsupportedFormatErrorFormat = "unsupported logging format %q (use console or json)"
	invalidLevelErrorFormat      = "invalid logging level %q: %w"
)

// New builds a zap logger writing to stderr. An empty level means info and
// an empty format means console.
func New(level string, format string) (*zap.Logger, error) {
	atomicLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(trimmed))
		if err != nil {
			return nil, fmt.Errorf(invalidLevelErrorFormat, level, err)
		}
		atomicLevel.SetLevel(parsed)
	}

	var configuration zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		configuration = zap.NewDevelopmentConfig()
		configuration.Development = false
		configuration.DisableStacktrace = true
	case FormatJSON:
		configuration = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf(unsupportedFormatErrorFormat, format)
	}
	configuration.Level = atomicLevel
	configuration.OutputPaths = []string{"stderr"}
	configuration.ErrorOutputPaths = []string{"stderr"}
	return configuration.Build()
}
