// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/slw/internal/commands"
	"github.com/temirov/slw/internal/config"
	"github.com/temirov/slw/internal/output"
	"github.com/temirov/slw/internal/services/clipboard"
	"github.com/temirov/slw/internal/services/stream"
	"github.com/temirov/slw/internal/types"
	"github.com/temirov/slw/internal/utils"
)

const (
	modeFlagName          = "mode"
	reportFlagName        = "report"
	diffPagerFlagName     = "diff-pager"
	jobsFlagName          = "jobs"
	extensionFlagName     = "extension"
	stdinFilepathFlagName = "stdin-filepath"
	defaultConfigFlagName = "default-config"
	copyFlagName          = "copy"
	exclusionFlagName     = "exclude"
	noGitignoreFlagName   = "no-gitignore"
	noIgnoreFlagName      = "no-ignore"
	verboseFlagName       = "verbose"
	versionFlagName       = "version"
	globalFlagName        = "global"
	forceFlagName         = "force"

	versionTemplate      = "slw version: %s\n"
	rootUse              = "slw [paths...]"
	rootShortDescription = "keep Markdown documents at one sentence per line"
	rootLongDescription  = `slw reformats Markdown so that every sentence starts on its own line and
lines stay within a maximum width. Code, tables, HTML, front matter and ignored
ranges are kept byte for byte.

Paths may be files or directories. Directories are searched recursively for files
with the configured extension. Without paths a document is read from stdin and the
result is written to stdout.

Per-file options are read from .slw.toml files in the document's directory and its
parents, from the slw-toml key of the document's front matter, from SLW_ environment
variables and from flags, in increasing order of precedence.`
	rootUsageExample = `  # Format every Markdown file below docs in place
  slw docs

  # Fail when a document is not formatted and show what would change
  slw --mode check --report diff README.md

  # Format stdin using the configuration found next to a file
  slw --stdin-filepath docs/guide.md < draft.md`
	initUse              = "init"
	initShortDescription = "write a default " + utils.ConfigFileName

	versionFlagDescription           = "display application version"
	maxWidthFlagDescription          = "maximum line width, 0 disables wrapping"
	endMarkersFlagDescription        = "characters that may end a sentence"
	langFlagDescription              = "space-separated languages whose abbreviations never end a sentence"
	suppressionsFlagDescription      = "additional space-separated words that never end a sentence"
	ignoresFlagDescription           = "space-separated words removed from the suppression list"
	upstreamCommandFlagDescription   = "upstream formatter executable run before slw"
	upstreamFlagDescription          = "upstream formatter arguments, the first word is the executable without --upstream-command"
	upstreamSeparatorFlagDescription = "separator for upstream formatter arguments, whitespace when empty"
	caseFlagDescription              = "suppression word matching: ignore or keep case"
	linkActionsFlagDescription       = "link rewrites: none, outsource-inline, collate-defs or both"
	keepWhitespaceFlagDescription    = "whitespace kept as is: none, in-links, linebreaks or both"
	formatBlockQuotesFlagDescription = "format the contents of block quotes"
	featuresFlagDescription          = "comma-separated features: format-footnotes, breaking-multiple-markers, breaking-start-marker, modify-nbsp"
	modeFlagDescription              = "format, check or both"
	reportFlagDescription            = "none, changed, state, diff or json"
	diffPagerFlagDescription         = "pipe diff reports through this command"
	jobsFlagDescription              = "number of documents processed in parallel, one per CPU when 0"
	extensionFlagDescription         = "extension of the files searched in directories"
	stdinFilepathFlagDescription     = "path used to locate configuration and run upstream formatters for stdin"
	defaultConfigFlagDescription     = "print the default configuration and exit"
	copyFlagDescription              = "also copy formatted stdin output to the clipboard"
	exclusionFlagDescription         = "exclude path pattern"
	disableGitignoreFlagDescription  = "do not use .gitignore"
	disableIgnoreFlagDescription     = "do not use .ignore"
	verboseFlagDescription           = "increase log verbosity, repeatable"
	globalFlagDescription            = "write the user-wide configuration instead"
	forceFlagDescription             = "overwrite an existing configuration file"

	invalidModeMessage          = "invalid mode %q, expected one of %v"
	invalidReportMessage        = "invalid report %q, expected one of %v"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	terminalStdinMessage        = "no paths given and stdin is a terminal"
	processingFailedMessage     = "there were errors processing at least one file: %w"
	copyFailedMessage           = "copy to clipboard"
	initializedMessage          = "configuration written to %s\n"
)

var (
	// ErrWouldChange is returned in check mode when at least one document is not formatted.
	ErrWouldChange = errors.New("at least one processed file would be changed")
	// ErrChanged is returned in both mode when at least one document was rewritten.
	ErrChanged = errors.New("at least one processed file changed")
)

// applicationStreams holds the process resources used by a command run.
type applicationStreams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	copier clipboard.Copier
	logger *zap.Logger
}

// runOptions stores the values of flags that do not belong to the per-file configuration.
type runOptions struct {
	mode              string
	report            string
	diffPager         string
	jobs              int
	extension         string
	stdinFilepath     string
	defaultConfig     bool
	copyOutput        bool
	exclusionPatterns []string
	disableGitignore  bool
	disableIgnoreFile bool
	verbosity         int
}

// settingFlags holds the targets of flags mirroring configuration keys. Their values
// are read back through pflag so that only explicitly given flags take precedence.
type settingFlags struct {
	maxWidth          int
	formatBlockQuotes bool
	text              map[string]*string
}

type stringSettingFlag struct {
	key         string
	shorthand   string
	description string
}

var stringSettingFlags = []stringSettingFlag{
	{key: config.KeyEndMarkers, shorthand: "e", description: endMarkersFlagDescription},
	{key: config.KeyLang, shorthand: "l", description: langFlagDescription},
	{key: config.KeySuppressions, shorthand: "s", description: suppressionsFlagDescription},
	{key: config.KeyIgnores, shorthand: "i", description: ignoresFlagDescription},
	{key: config.KeyUpstreamCommand, description: upstreamCommandFlagDescription},
	{key: config.KeyUpstream, shorthand: "u", description: upstreamFlagDescription},
	{key: config.KeyUpstreamSeparator, description: upstreamSeparatorFlagDescription},
	{key: config.KeyCase, shorthand: "c", description: caseFlagDescription},
	{key: config.KeyLinkActions, description: linkActionsFlagDescription},
	{key: config.KeyKeepWhitespace, description: keepWhitespaceFlagDescription},
	{key: config.KeyFeatures, description: featuresFlagDescription},
}

// Execute runs the slw application.
func Execute() error {
	rootCommand := createRootCommand(applicationStreams{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		copier: clipboard.NewService(),
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(streams applicationStreams) *cobra.Command {
	var showVersion bool
	var options runOptions
	var settings settingFlags

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runFormat(command, arguments, options, streams)
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.SetIn(streams.stdin)
	rootCommand.SetOut(streams.stdout)
	rootCommand.SetErr(streams.stderr)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().CountVarP(&options.verbosity, verboseFlagName, "v", verboseFlagDescription)
	addSettingFlags(rootCommand.Flags(), &settings)
	addRunFlags(rootCommand.Flags(), &options)
	rootCommand.AddCommand(createInitCommand())
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// addSettingFlags registers one flag per configuration key with the built-in default.
func addSettingFlags(flagSet *pflag.FlagSet, settings *settingFlags) {
	defaults := config.Defaults()
	flagSet.IntVarP(&settings.maxWidth, config.KeyMaxWidth, "w", *defaults.MaxWidth, maxWidthFlagDescription)
	settings.text = make(map[string]*string, len(stringSettingFlags))
	defaultValues := map[string]*string{
		config.KeyEndMarkers:        defaults.EndMarkers,
		config.KeyLang:              defaults.Lang,
		config.KeySuppressions:      defaults.Suppressions,
		config.KeyIgnores:           defaults.Ignores,
		config.KeyUpstreamCommand:   defaults.UpstreamCommand,
		config.KeyUpstream:          defaults.Upstream,
		config.KeyUpstreamSeparator: defaults.UpstreamSeparator,
		config.KeyCase:              defaults.Case,
		config.KeyLinkActions:       defaults.LinkActions,
		config.KeyKeepWhitespace:    defaults.KeepWhitespace,
		config.KeyFeatures:          defaults.Features,
	}
	for _, flag := range stringSettingFlags {
		target := new(string)
		settings.text[flag.key] = target
		flagSet.StringVarP(target, flag.key, flag.shorthand, *defaultValues[flag.key], flag.description)
	}
	registerBooleanFlag(flagSet, &settings.formatBlockQuotes, config.KeyFormatBlockQuotes, *defaults.FormatBlockQuotes, formatBlockQuotesFlagDescription)
}

// addRunFlags registers the flags that apply to the whole run.
func addRunFlags(flagSet *pflag.FlagSet, options *runOptions) {
	flagSet.StringVarP(&options.mode, modeFlagName, "m", types.ModeFormat, modeFlagDescription)
	flagSet.StringVarP(&options.report, reportFlagName, "r", types.ReportNone, reportFlagDescription)
	flagSet.StringVarP(&options.diffPager, diffPagerFlagName, "d", "", diffPagerFlagDescription)
	flagSet.IntVarP(&options.jobs, jobsFlagName, "j", 0, jobsFlagDescription)
	flagSet.StringVar(&options.extension, extensionFlagName, types.DefaultExtension, extensionFlagDescription)
	flagSet.StringVar(&options.stdinFilepath, stdinFilepathFlagName, "", stdinFilepathFlagDescription)
	flagSet.StringArrayVar(&options.exclusionPatterns, exclusionFlagName, nil, exclusionFlagDescription)
	registerBooleanFlag(flagSet, &options.defaultConfig, defaultConfigFlagName, false, defaultConfigFlagDescription)
	registerBooleanFlag(flagSet, &options.copyOutput, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(flagSet, &options.disableGitignore, noGitignoreFlagName, false, disableGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &options.disableIgnoreFile, noIgnoreFlagName, false, disableIgnoreFlagDescription)
}

// collectFlagSettings returns the configuration values of explicitly given flags.
func collectFlagSettings(flagSet *pflag.FlagSet) (config.Settings, error) {
	var settings config.Settings
	for _, key := range config.Keys() {
		flag := flagSet.Lookup(key)
		if flag == nil || !flag.Changed {
			continue
		}
		if setError := settings.Set(key, flag.Value.String()); setError != nil {
			return config.Settings{}, fmt.Errorf("--%s: %w", key, setError)
		}
	}
	return settings, nil
}

func createInitCommand() *cobra.Command {
	var global bool
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), initializedMessage, destination)
			return writeError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// runFormat validates the run options and dispatches to stdin or file processing.
func runFormat(command *cobra.Command, arguments []string, options runOptions, streams applicationStreams) error {
	if options.defaultConfig {
		_, writeError := io.WriteString(streams.stdout, config.DefaultTemplate())
		return writeError
	}
	if !slices.Contains(types.SupportedModes(), options.mode) {
		return fmt.Errorf(invalidModeMessage, options.mode, types.SupportedModes())
	}
	if !slices.Contains(types.SupportedReports(), options.report) {
		return fmt.Errorf(invalidReportMessage, options.report, types.SupportedReports())
	}

	logger := streams.logger
	if logger == nil {
		createdLogger, loggerError := utils.NewApplicationLogger(utils.LevelForVerbosity(options.verbosity))
		if loggerError != nil {
			return loggerError
		}
		defer func() { _ = createdLogger.Sync() }()
		logger = createdLogger
	}

	flagSettings, flagError := collectFlagSettings(command.Flags())
	if flagError != nil {
		return flagError
	}
	environmentSettings, environmentError := config.FromEnvironment()
	if environmentError != nil {
		return environmentError
	}
	if _, resolveError := config.Resolve(config.Layer(environmentSettings, flagSettings)); resolveError != nil {
		return resolveError
	}

	globalPath, globalPathError := config.GlobalConfigurationPath()
	if globalPathError != nil {
		logger.Debug("global configuration disabled", zap.Error(globalPathError))
		globalPath = ""
	}
	processor := &commands.Processor{
		Loader:      config.NewLoader(globalPath),
		Environment: environmentSettings,
		Flags:       flagSettings,
		Mode:        options.mode,
		Logger:      logger,
	}

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}

	ctx := command.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var changed bool
	if len(arguments) == 0 {
		stdinChanged, stdinError := runStdin(ctx, processor, options, streams, logger, workingDirectory)
		if stdinError != nil {
			return stdinError
		}
		changed = stdinChanged
	} else {
		filesChanged, filesError := runFiles(ctx, processor, arguments, options, streams, logger, workingDirectory)
		if filesError != nil {
			return filesError
		}
		changed = filesChanged
	}
	return exitStatus(options.mode, changed)
}

// exitStatus maps the presence of changed documents to the run result of mode.
func exitStatus(mode string, changed bool) error {
	if !changed || !types.FailsOnChange(mode) {
		return nil
	}
	if mode == types.ModeCheck {
		return ErrWouldChange
	}
	return ErrChanged
}

// runStdin formats a single document read from stdin.
func runStdin(ctx context.Context, processor *commands.Processor, options runOptions, streams applicationStreams, logger *zap.Logger, workingDirectory string) (bool, error) {
	if file, isFile := streams.stdin.(*os.File); isFile && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		return false, errors.New(terminalStdinMessage)
	}
	directory := workingDirectory
	displayPath := types.StdinPath
	if options.stdinFilepath != "" {
		absolutePath, absoluteError := filepath.Abs(options.stdinFilepath)
		if absoluteError != nil {
			return false, absoluteError
		}
		directory = filepath.Dir(absolutePath)
		displayPath = options.stdinFilepath
	}

	content, readError := io.ReadAll(streams.stdin)
	if readError != nil {
		return false, fmt.Errorf("read stdin: %w", readError)
	}
	original := string(content)
	outcome, formatError := processor.FormatDocument(ctx, original, directory)
	if formatError != nil {
		return false, formatError
	}
	for _, warning := range outcome.Warnings {
		logger.Warn(warning, zap.String("path", displayPath))
	}

	emitted := outcome.Processed
	if options.mode == types.ModeCheck {
		emitted = original
	}
	if _, writeError := io.WriteString(streams.stdout, emitted); writeError != nil {
		return false, writeError
	}
	if options.copyOutput && streams.copier != nil {
		if copyError := streams.copier.Copy(outcome.Processed); copyError != nil {
			return false, fmt.Errorf("%s: %w", copyFailedMessage, copyError)
		}
	}
	return outcome.Processed != original, nil
}

// runFiles discovers documents below arguments and formats them on the worker pool.
func runFiles(ctx context.Context, processor *commands.Processor, arguments []string, options runOptions, streams applicationStreams, logger *zap.Logger, workingDirectory string) (changed bool, err error) {
	validatedPaths, pathValidationError := commands.ResolveAndValidatePaths(arguments)
	if pathValidationError != nil {
		return false, pathValidationError
	}
	documents, discoveryError := commands.DiscoverDocuments(validatedPaths, commands.DiscoveryOptions{
		Extension:         options.extension,
		ExclusionPatterns: options.exclusionPatterns,
		UseGitignore:      !options.disableGitignore,
		UseIgnoreFile:     !options.disableIgnoreFile,
		Warn: func(message string) {
			logger.Warn(message)
		},
	})
	if discoveryError != nil {
		return false, discoveryError
	}
	logger.Debug("discovered documents", zap.Int("count", len(documents)))
	if preflightError := preflightConfiguration(processor, documents); preflightError != nil {
		return false, preflightError
	}

	var reportWriter io.Writer = streams.stdout
	if options.report == types.ReportDiff && options.diffPager != "" {
		pager, pagerError := output.StartPager(ctx, options.diffPager, streams.stdout, streams.stderr)
		if pagerError != nil {
			return false, pagerError
		}
		if pager != nil {
			reportWriter = pager
			defer func() {
				if closeError := pager.Close(); closeError != nil && err == nil {
					err = closeError
				}
			}()
		}
	}

	renderer, rendererError := output.NewReportRenderer(reportWriter, logger, options.report, workingDirectory)
	if rendererError != nil {
		return false, rendererError
	}

	producer := func(streamCtx context.Context, ch chan<- stream.Event) error {
		return stream.StreamFormat(streamCtx, stream.FormatOptions{
			Documents: documents,
			Jobs:      options.jobs,
			Processor: processor,
		}, ch)
	}
	consumer := func(event stream.Event) error {
		if event.Kind == stream.EventKindFile && event.File != nil && event.File.Changed {
			changed = true
		}
		return renderer.Handle(event)
	}

	streamError := dispatchStream(ctx, producer, consumer)
	if flushError := renderer.Flush(); flushError != nil && streamError == nil {
		streamError = flushError
	}
	if streamError != nil {
		return changed, fmt.Errorf(processingFailedMessage, streamError)
	}
	return changed, nil
}

// preflightConfiguration resolves the configuration files and flags of every document
// so invalid configuration is reported before any document is rewritten.
func preflightConfiguration(processor *commands.Processor, documents []types.Document) error {
	for _, document := range documents {
		fileSettings, loadError := processor.Loader.ForFile(document.Path)
		if loadError != nil {
			return loadError
		}
		if _, resolveError := config.Resolve(config.Layer(fileSettings, processor.Environment, processor.Flags)); resolveError != nil {
			return fmt.Errorf("%s: %w", document.Path, resolveError)
		}
	}
	return nil
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for event := range events {
			if err := consume(event); err != nil {
				return err
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
