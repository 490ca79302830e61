package episodekit

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/temirov/episode-kit/internal/config"
	"github.com/temirov/episode-kit/internal/logging"
)

// newSettings returns a viper instance that resolves a key from its flag
// when set, then from EPISODE_KIT_<KEY>, then from the flag default.
func newSettings() *viper.Viper {
	settings := viper.New()
	settings.SetEnvPrefix(environmentPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	return settings
}

func bindFlags(settings *viper.Viper, flags *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if err := settings.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf(bindEnvironmentErrorFormat, name, err)
		}
	}
	return nil
}

// runtime is what every subcommand needs before doing work.
type runtime struct {
	root      config.Root
	reference string
	logger    *zap.Logger
}

func loadRuntime(settings *viper.Viper) (runtime, error) {
	rootConfiguration, reference, err := config.Resolve(settings.GetString(configFlagName))
	if err != nil {
		return runtime{}, fmt.Errorf(configurationLoadErrorFormat, err)
	}

	level := firstNonEmpty(settings.GetString(logLevelFlagName), rootConfiguration.Common.Logging.Level)
	format := firstNonEmpty(settings.GetString(logFormatFlagName), rootConfiguration.Common.Logging.Format)
	logger, err := logging.New(level, format)
	if err != nil {
		return runtime{}, fmt.Errorf(loggerBuildErrorFormat, err)
	}
	logger.Debug("configuration loaded", zap.String("source", reference))
	return runtime{root: rootConfiguration, reference: reference, logger: logger}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
