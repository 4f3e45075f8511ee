package depupdate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/filesystem"
	pathutils "github.com/Forward-Education/pxt-all-fwd-blocks/internal/utils/path"
)

const (
	commandUseConstant                    = "update-deps <version>"
	commandShortDescriptionConstant       = "Pin prefixed dependencies to a version"
	commandLongDescriptionConstant        = "update-deps finds every project configuration below the root and points the dependencies whose names start with the prefix at the given tag or commit."
	commandExampleConstant                = "fwd-scripts update-deps v1.0.2\nfwd-scripts update-deps 3f2a9c1 --prefix fwd-edu- --dry-run"
	prefixFlagNameConstant                = "prefix"
	prefixFlagDescriptionConstant         = "Dependency name prefix selecting the entries to update"
	schemeFlagNameConstant                = "scheme"
	schemeFlagDescriptionConstant         = "Reference scheme eligible for updates"
	rootFlagNameConstant                  = "root"
	rootFlagDescriptionConstant           = "Directory searched recursively for configuration files"
	excludeFlagNameConstant               = "exclude"
	excludeFlagDescriptionConstant        = "Directory names never searched (repeatable)"
	dryRunFlagNameConstant                = "dry-run"
	dryRunFlagDescriptionConstant         = "Report planned updates without writing files"
	expectedArgumentCountConstant         = 1
	versionArgumentMissingMessageConstant = "exactly one target version argument is required"
	filesFailedMessageConstant            = "configuration files could not be updated"
	filesFailedErrorTemplateConstant      = "%w: %d of %d"
)

// ErrVersionArgumentMissing indicates the command was invoked without exactly one version argument.
var ErrVersionArgumentMissing = errors.New(versionArgumentMissingMessageConstant)

// ErrFilesFailed indicates that at least one configuration file could not be processed.
var ErrFilesFailed = errors.New(filesFailedMessageConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the update-deps command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	FileSystem            filesystem.FileSystem
	Discoverer            FileDiscoverer
	ConfigurationProvider func() CommandConfiguration
	HomeExpander          *pathutils.HomeExpander
}

// Build constructs the update-deps command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    validateArguments,
		RunE:    builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(prefixFlagNameConstant, defaults.Prefix, prefixFlagDescriptionConstant)
	command.Flags().String(schemeFlagNameConstant, defaults.Scheme, schemeFlagDescriptionConstant)
	command.Flags().String(rootFlagNameConstant, defaults.Root, rootFlagDescriptionConstant)
	command.Flags().StringSlice(excludeFlagNameConstant, nil, excludeFlagDescriptionConstant)
	command.Flags().Bool(dryRunFlagNameConstant, defaults.DryRun, dryRunFlagDescriptionConstant)

	return command, nil
}

func validateArguments(command *cobra.Command, arguments []string) error {
	if len(arguments) != expectedArgumentCountConstant || len(strings.TrimSpace(arguments[0])) == 0 {
		_ = command.Usage()
		return ErrVersionArgumentMissing
	}
	return nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if validationError := validateArguments(command, arguments); validationError != nil {
		return validationError
	}

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	service := NewService(Dependencies{
		FileSystem: builder.FileSystem,
		Discoverer: builder.Discoverer,
		Logger:     builder.resolveLogger(),
		Output:     command.OutOrStdout(),
	})

	summary, updateError := service.Update(command.Context(), Options{
		Version:             arguments[0],
		Prefix:              configuration.Prefix,
		Scheme:              configuration.Scheme,
		FileName:            configuration.FileName,
		Root:                builder.HomeExpander.Expand(configuration.Root),
		ExcludedDirectories: configuration.ExcludedDirectories,
		DryRun:              configuration.DryRun,
	})
	if updateError != nil {
		return updateError
	}

	if failedOutcomes := summary.FailedFiles(); len(failedOutcomes) > 0 {
		return fmt.Errorf(filesFailedErrorTemplateConstant, ErrFilesFailed, len(failedOutcomes), summary.FilesScanned())
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
		prefixFlagNameConstant: &configuration.Prefix,
		schemeFlagNameConstant: &configuration.Scheme,
		rootFlagNameConstant:   &configuration.Root,
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

	if flagSet.Changed(excludeFlagNameConstant) {
		excludedDirectories, excludeError := flagSet.GetStringSlice(excludeFlagNameConstant)
		if excludeError != nil {
			return CommandConfiguration{}, excludeError
		}
		configuration.ExcludedDirectories = excludedDirectories
	}

	if flagSet.Changed(dryRunFlagNameConstant) {
		dryRun, dryRunError := flagSet.GetBool(dryRunFlagNameConstant)
		if dryRunError != nil {
			return CommandConfiguration{}, dryRunError
		}
		configuration.DryRun = dryRun
	}

	return configuration.Sanitize(), nil
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
