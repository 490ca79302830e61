package episodekit

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the command tree. Every call returns an
// independent tree with its own settings.
func NewRootCommand() *cobra.Command {
	settings := newSettings()

	command := &cobra.Command{
		Use:           rootCommandUse,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(settings, cmd.Flags(), configFlagName, logLevelFlagName, logFormatFlagName)
		},
	}

	persistentFlags := command.PersistentFlags()
	persistentFlags.String(configFlagName, "", configFlagUsage)
	persistentFlags.String(logLevelFlagName, "", logLevelFlagUsage)
	persistentFlags.String(logFormatFlagName, "", logFormatFlagUsage)

	command.AddCommand(
		newRenumberCommand(settings),
		newGenerateCommand(settings),
		newProvidersCommand(settings),
	)
	return command
}

func Execute() error {
	return NewRootCommand().Execute()
}
