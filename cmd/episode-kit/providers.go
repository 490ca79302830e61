package episodekit

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newProvidersCommand(settings *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   providersCommandUse,
		Short: providersCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvidersCommand(cmd, settings)
		},
	}
}

func runProvidersCommand(command *cobra.Command, settings *viper.Viper) error {
	rt, err := loadRuntime(settings)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	defaultProvider, _ := rt.root.DefaultProvider()
	outputWriter := command.OutOrStdout()
	for _, provider := range rt.root.Providers {
		marker := ""
		if provider.Name == defaultProvider.Name {
			marker = defaultMarkerLabel
		}
		_, writeErr := fmt.Fprintf(outputWriter, "%s\t(%s, model=%s%s)\n",
			provider.Name,
			dashIfEmpty(firstNonEmpty(provider.Kind, provider.Name)),
			dashIfEmpty(provider.Model),
			marker,
		)
		if writeErr != nil {
			return fmt.Errorf(providerListingErrorFormat, writeErr)
		}
	}
	return nil
}

func dashIfEmpty(value string) string {
	if value == "" {
		return dashPlaceholder
	}
	return value
}
