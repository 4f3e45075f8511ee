package testrunner

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/execshell"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/filesystem"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/ui"
	pathutils "github.com/Forward-Education/pxt-all-fwd-blocks/internal/utils/path"
)

const (
	commandUseConstant                       = "run-tests"
	commandShortDescriptionConstant          = "Build each test file in isolation"
	commandLongDescriptionConstant           = "run-tests points the project configuration's testFiles list at one test source at a time, runs the build command for each, reports the failures and restores the original configuration."
	commandLineFlagNameConstant              = "command"
	commandLineFlagDescriptionConstant       = "Build command executed through the host shell for each test file"
	configurationFileFlagNameConstant        = "config-file"
	configurationFileFlagDescriptionConstant = "Project configuration file rewritten for each test file"
	testsDirectoryFlagNameConstant           = "tests-dir"
	testsDirectoryFlagDescriptionConstant    = "Directory searched recursively for test files"
	extensionFlagNameConstant                = "extension"
	extensionFlagDescriptionConstant         = "Source extension identifying test files"
	failOnErrorFlagNameConstant              = "fail-on-error"
	failOnErrorFlagDescriptionConstant       = "Exit with an error when at least one test file fails"
	watchFlagNameConstant                    = "watch"
	watchFlagDescriptionConstant             = "Re-run changed test files until interrupted"
	testsFailedMessageConstant               = "test files failed"
	failedTestsErrorTemplateConstant         = "%w: %d of %d"
)

// ErrTestsFailed indicates that --fail-on-error was requested and a test file failed.
var ErrTestsFailed = errors.New(testsFailedMessageConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the run-tests command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	FileSystem                   filesystem.FileSystem
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the run-tests command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(commandLineFlagNameConstant, defaults.CommandLine, commandLineFlagDescriptionConstant)
	command.Flags().String(configurationFileFlagNameConstant, defaults.ConfigurationFilePath, configurationFileFlagDescriptionConstant)
	command.Flags().String(testsDirectoryFlagNameConstant, defaults.TestsDirectory, testsDirectoryFlagDescriptionConstant)
	command.Flags().String(extensionFlagNameConstant, defaults.Extension, extensionFlagDescriptionConstant)
	command.Flags().Bool(failOnErrorFlagNameConstant, defaults.FailOnError, failOnErrorFlagDescriptionConstant)
	command.Flags().Bool(watchFlagNameConstant, defaults.Watch, watchFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	service, serviceError := NewService(Dependencies{
		Executor:   executor,
		FileSystem: builder.FileSystem,
		Logger:     logger,
		Output:     command.OutOrStdout(),
	})
	if serviceError != nil {
		return serviceError
	}

	options := Options{
		ConfigurationFilePath: builder.HomeExpander.Expand(configuration.ConfigurationFilePath),
		TestsDirectory:        builder.HomeExpander.Expand(configuration.TestsDirectory),
		Extension:             configuration.Extension,
		CommandLine:           configuration.CommandLine,
	}

	var summary RunSummary
	var runError error
	if configuration.Watch {
		summary, runError = service.Watch(command.Context(), options)
	} else {
		summary, runError = service.Run(command.Context(), options)
	}
	if runError != nil {
		return runError
	}

	if configuration.FailOnError && summary.HasFailures() {
		return fmt.Errorf(failedTestsErrorTemplateConstant, ErrTestsFailed, len(summary.FailedTestFiles), len(summary.DiscoveredTestFiles))
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	stringOverrides := map[string]*string{
		commandLineFlagNameConstant:       &configuration.CommandLine,
		configurationFileFlagNameConstant: &configuration.ConfigurationFilePath,
		testsDirectoryFlagNameConstant:    &configuration.TestsDirectory,
		extensionFlagNameConstant:         &configuration.Extension,
	}
	for flagName, target := range stringOverrides {
		if !flagSet.Changed(flagName) {
			continue
		}
		flagValue, flagError := flagSet.GetString(flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*target = flagValue
	}

	booleanOverrides := map[string]*bool{
		failOnErrorFlagNameConstant: &configuration.FailOnError,
		watchFlagNameConstant:       &configuration.Watch,
	}
	for flagName, target := range booleanOverrides {
		if !flagSet.Changed(flagName) {
			continue
		}
		flagValue, flagError := flagSet.GetBool(flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*target = flagValue
	}

	return configuration.Sanitize(), nil
}

// resolveExecutor returns the injected executor or a host-shell executor. Human-readable logging renders
// command lifecycle events through the console observer instead of structured executor logs.
func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	executorLogger := logger
	var observers []execshell.CommandEventObserver
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorLogger = zap.NewNop()
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(executorLogger, execshell.NewOSCommandRunner(), observers...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
