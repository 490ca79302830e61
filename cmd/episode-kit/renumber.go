package episodekit

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/temirov/episode-kit/internal/fsops"
	"github.com/temirov/episode-kit/internal/renumber"
)

var errIncompleteRenumber = errors.New("renumbering incomplete")

type renumberCommandOptions struct {
	prefix    string
	extension string
	staged    bool
	dryRun    bool
	strict    bool
}

func newRenumberCommand(settings *viper.Viper) *cobra.Command {
	options := &renumberCommandOptions{}

	command := &cobra.Command{
		Use:   renumberCommandUse,
		Short: renumberCommandShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenumberCommand(cmd, settings, *options, args)
		},
	}

	flags := command.Flags()
	flags.StringVar(&options.prefix, prefixFlagName, "", prefixFlagUsage)
	flags.StringVar(&options.extension, extensionFlagName, "", extensionFlagUsage)
	flags.BoolVar(&options.staged, stagedFlagName, false, stagedFlagUsage)
	flags.BoolVar(&options.strict, strictFlagName, false, strictFlagUsage)
	registerBoolChoiceFlag(flags, &options.dryRun, dryRunFlagName, dryRunFlagUsage)
	return command
}

func runRenumberCommand(command *cobra.Command, settings *viper.Viper, options renumberCommandOptions, args []string) error {
	rt, err := loadRuntime(settings)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	section := rt.root.Renumber
	directory := firstNonEmpty(section.Directory, defaultRenumberDirectory)
	if len(args) > 0 {
		directory = args[0]
	}

	flags := command.Flags()
	pattern := renumber.Pattern{Prefix: section.Prefix, Extension: section.Extension}
	if flags.Changed(prefixFlagName) {
		pattern.Prefix = options.prefix
	}
	if flags.Changed(extensionFlagName) {
		pattern.Extension = options.extension
	}
	if err := pattern.Validate(); err != nil {
		return fmt.Errorf(patternErrorFormat, err)
	}

	staged := section.Staged
	if flags.Changed(stagedFlagName) {
		staged = options.staged
	}

	renumberer := renumber.New(fsops.NewOps(fsops.NewOS()), rt.logger, renumber.Options{
		Staged: staged,
		DryRun: options.dryRun,
	})
	report := renumberer.Run(directory, pattern)
	if err := report.Render(command.OutOrStdout()); err != nil {
		return fmt.Errorf(reportWriteErrorFormat, err)
	}

	if options.strict && !report.OK() {
		return fmt.Errorf(strictReportErrorFormat,
			errIncompleteRenumber,
			report.Count(renumber.KindCollision),
			report.Count(renumber.KindFailed),
			directoryStatus(report),
		)
	}
	return nil
}

func directoryStatus(report renumber.Report) string {
	switch {
	case report.Count(renumber.KindNotFound) > 0:
		return string(renumber.KindNotFound)
	case report.Count(renumber.KindUnreadable) > 0:
		return string(renumber.KindUnreadable)
	default:
		return "ok"
	}
}
