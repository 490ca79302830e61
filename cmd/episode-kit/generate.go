package episodekit

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/temirov/episode-kit/internal/config"
	"github.com/temirov/episode-kit/internal/fsops"
	"github.com/temirov/episode-kit/internal/llm"
	"github.com/temirov/episode-kit/internal/pipeline"
	"github.com/temirov/episode-kit/tasks/codegen"
)

type generateCommandOptions struct {
	promptFile  string
	temperature float64
	outputPath  string
	extractCode bool
	attempts    int
	timeout     time.Duration
}

func newGenerateCommand(settings *viper.Viper) *cobra.Command {
	options := &generateCommandOptions{}

	command := &cobra.Command{
		Use:   generateCommandUse,
		Short: generateCommandShort,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(settings, cmd.Flags(), providerFlagName)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateCommand(cmd, settings, *options, args)
		},
	}

	flags := command.Flags()
	flags.String(providerFlagName, "", providerFlagUsage)
	flags.StringVar(&options.promptFile, promptFileFlagName, "", promptFileFlagUsage)
	flags.Float64Var(&options.temperature, temperatureFlagName, 0, temperatureUsage)
	flags.StringVar(&options.outputPath, outputFlagName, "", outputFlagUsage)
	flags.BoolVar(&options.extractCode, extractCodeFlagName, false, extractCodeUsage)
	flags.IntVar(&options.attempts, attemptsFlagName, 0, attemptsFlagUsage)
	flags.DurationVar(&options.timeout, timeoutFlagName, 0, timeoutFlagUsage)
	return command
}

func runGenerateCommand(command *cobra.Command, settings *viper.Viper, options generateCommandOptions, args []string) error {
	rt, err := loadRuntime(settings)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	providerEntry, err := selectProvider(rt.root, settings.GetString(providerFlagName))
	if err != nil {
		return err
	}
	provider, err := llm.ResolveProvider(providerEntry, os.LookupEnv)
	if err != nil {
		return fmt.Errorf(resolveProviderErrorFormat, err)
	}
	generator, err := llm.New(command.Context(), provider, rt.logger)
	if err != nil {
		return err
	}

	var temperature *float64
	if command.Flags().Changed(temperatureFlagName) {
		temperature = &options.temperature
	}

	inputs := codegen.Inputs{PromptFile: options.promptFile, Stdin: command.InOrStdin()}
	if len(args) > 0 {
		inputs.Argument = args[0]
	}
	task := codegen.New(fsops.NewOps(fsops.NewOS()), command.OutOrStdout(), inputs, codegen.Options{
		ExtractCode: options.extractCode,
		OutputPath:  options.outputPath,
		Temperature: temperature,
	})

	runner := pipeline.Runner{
		Client: llm.Adapter{Generator: generator, DefaultTemp: providerEntry.DefaultTemperature},
		Options: pipeline.RunOptions{
			MaxAttempts: resolveAttempts(options.attempts, rt.root),
			Timeout:     resolveTimeout(options.timeout, rt.root),
		},
		Logger: rt.logger,
	}
	report, err := runner.Run(command.Context(), task)
	if err != nil {
		if errors.Is(err, codegen.ErrEmptyPrompt) {
			return errors.New(emptyPromptErrorMessage)
		}
		return err
	}
	rt.logger.Info("generate finished",
		zap.String("provider", provider.Name),
		zap.String("model", provider.Model),
		zap.String("summary", report.Summary),
	)
	return nil
}

// selectProvider picks the named provider, or the default one when name is
// empty.
func selectProvider(root config.Root, name string) (config.Provider, error) {
	if name != "" {
		provider, found := root.FindProvider(name)
		if !found {
			return config.Provider{}, fmt.Errorf(unknownProviderErrorFormat, name)
		}
		return provider, nil
	}
	provider, found := root.DefaultProvider()
	if !found {
		return config.Provider{}, errors.New(noProvidersErrorMessage)
	}
	return provider, nil
}

func resolveAttempts(flagValue int, root config.Root) int {
	if flagValue > 0 {
		return flagValue
	}
	if root.Common.Defaults.Attempts > 0 {
		return root.Common.Defaults.Attempts
	}
	return defaultAttempts
}

func resolveTimeout(flagValue time.Duration, root config.Root) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if root.Common.Defaults.TimeoutSeconds > 0 {
		return time.Duration(root.Common.Defaults.TimeoutSeconds) * time.Second
	}
	return defaultTimeoutSeconds * time.Second
}
