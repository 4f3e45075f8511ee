package testrunner

import (
	"strings"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/pxtconfig"
)

const (
	defaultCommandLineConstant             = "mkc"
	defaultTestsDirectoryConstant          = "tests"
	defaultTestExtensionConstant           = ".ts"
	configurationCommandKeyConstant        = "command"
	configurationFileKeyConstant           = "config_file"
	configurationTestsDirectoryKeyConstant = "tests_dir"
	configurationExtensionKeyConstant      = "extension"
	configurationFailOnErrorKeyConstant    = "fail_on_error"
	configurationWatchKeyConstant          = "watch"
)

// CommandConfiguration captures configuration values for the run-tests command.
type CommandConfiguration struct {
	CommandLine           string `mapstructure:"command"`
	ConfigurationFilePath string `mapstructure:"config_file"`
	TestsDirectory        string `mapstructure:"tests_dir"`
	Extension             string `mapstructure:"extension"`
	FailOnError           bool   `mapstructure:"fail_on_error"`
	Watch                 bool   `mapstructure:"watch"`
}

// DefaultCommandConfiguration provides baseline configuration values for run-tests.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		CommandLine:           defaultCommandLineConstant,
		ConfigurationFilePath: pxtconfig.DefaultFileName,
		TestsDirectory:        defaultTestsDirectoryConstant,
		Extension:             defaultTestExtensionConstant,
		FailOnError:           false,
		Watch:                 false,
	}
}

// DefaultConfigurationValues produces Viper defaults for run-tests below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationCommandKeyConstant:        defaults.CommandLine,
		rootKey + "." + configurationFileKeyConstant:           defaults.ConfigurationFilePath,
		rootKey + "." + configurationTestsDirectoryKeyConstant: defaults.TestsDirectory,
		rootKey + "." + configurationExtensionKeyConstant:      defaults.Extension,
		rootKey + "." + configurationFailOnErrorKeyConstant:    defaults.FailOnError,
		rootKey + "." + configurationWatchKeyConstant:          defaults.Watch,
	}
}

// Sanitize trims configuration values and falls back to defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.CommandLine = valueOrDefault(configuration.CommandLine, defaults.CommandLine)
	sanitized.ConfigurationFilePath = valueOrDefault(configuration.ConfigurationFilePath, defaults.ConfigurationFilePath)
	sanitized.TestsDirectory = valueOrDefault(configuration.TestsDirectory, defaults.TestsDirectory)
	sanitized.Extension = valueOrDefault(configuration.Extension, defaults.Extension)

	return sanitized
}

func valueOrDefault(candidate string, fallback string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		return fallback
	}
	return trimmed
}
