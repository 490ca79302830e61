package episodekit

const (
	rootCommandUse   = "episode-kit"
	rootCommandShort = "Maintain recorded episode datasets and dispatch code-generation prompts"

	environmentPrefix = "EPISODE_KIT"

	configFlagName      = "config"
	configFlagUsage     = "Path to config.yaml (default: search ./config.yaml, XDG and home locations, then embedded)"
	logLevelFlagName    = "log-level"
	logLevelFlagUsage   = "Log level: debug, info, warn, error (overrides common.logging.level)"
	logFormatFlagName   = "log-format"
	logFormatFlagUsage  = "Log format: console or json (overrides common.logging.format)"
	providerFlagName    = "provider"
	providerFlagUsage   = "Provider name from providers[] (default: the provider marked default)"
	dryRunFlagName      = "dry-run"
	dryRunFlagUsage     = "Report the planned renames without touching the filesystem"
	prefixFlagName      = "prefix"
	prefixFlagUsage     = "File name prefix preceding the numeric id (default from renumber.prefix)"
	extensionFlagName   = "extension"
	extensionFlagUsage  = "File extension without the dot, matched case-insensitively (default from renumber.extension)"
	stagedFlagName      = "staged"
	stagedFlagUsage     = "Rename through temporary names so permutations of existing ids do not collide"
	strictFlagName      = "strict"
	strictFlagUsage     = "Exit non-zero when any file was not renamed as planned"
	promptFileFlagName  = "prompt-file"
	promptFileFlagUsage = "Read the prompt from this file instead of the argument or stdin"
	temperatureFlagName = "temperature"
	temperatureUsage    = "Sampling temperature (default: provider default_temperature)"
	outputFlagName      = "output"
	outputFlagUsage     = "Write the generated text to this file instead of stdout"
	extractCodeFlagName = "extract-code"
	extractCodeUsage    = "Require a fenced code block in the answer and keep only its body"
	attemptsFlagName    = "attempts"
	attemptsFlagUsage   = "Max refine attempts (0 = use common.defaults.attempts)"
	timeoutFlagName     = "timeout"
	timeoutFlagUsage    = "Per-attempt timeout (e.g., 45s; 0 = use common.defaults.timeout_seconds)"

	renumberCommandUse    = "renumber [DIRECTORY]"
	renumberCommandShort  = "Rename {prefix}{id}.{extension} files to a dense 0..N-1 sequence"
	generateCommandUse    = "generate [PROMPT]"
	generateCommandShort  = "Send a prompt to the configured LLM provider and print or save the answer"
	providersCommandUse   = "providers"
	providersCommandShort = "List configured LLM providers"

	defaultRenumberDirectory = "."
	defaultAttempts          = 1
	defaultTimeoutSeconds    = 120
	defaultMarkerLabel       = ", default"
	dashPlaceholder          = "-"

	configurationLoadErrorFormat = "load configuration: %w"
	loggerBuildErrorFormat       = "build logger: %w"
	patternErrorFormat           = "invalid renumber pattern: %w"
	strictReportErrorFormat      = "%w: %d collisions, %d failed, directory status %s"
	reportWriteErrorFormat       = "write renumber report: %w"
	unknownProviderErrorFormat   = "unknown provider %q"
	noProvidersErrorMessage      = "no providers configured"
	resolveProviderErrorFormat   = "resolve provider: %w"
	emptyPromptErrorMessage      = "prompt is empty: pass it as an argument, with --prompt-file, or on stdin"
	providerListingErrorFormat   = "write provider listing: %w"
	invalidBooleanErrorFormat    = "invalid boolean value %q for --%s"
	bindEnvironmentErrorFormat   = "bind %s to environment: %w"
)

