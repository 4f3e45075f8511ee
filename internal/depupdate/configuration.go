package depupdate

import (
	"strings"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/pxtconfig"
)

const (
	defaultDependencyPrefixConstant             = "fwd-"
	defaultReferenceSchemeConstant              = "github:"
	defaultRootConstant                         = "."
	configurationPrefixKeyConstant              = "prefix"
	configurationSchemeKeyConstant              = "scheme"
	configurationFileNameKeyConstant            = "file_name"
	configurationRootKeyConstant                = "root"
	configurationExcludedDirectoriesKeyConstant = "excluded_directories"
	configurationDryRunKeyConstant              = "dry_run"
)

// CommandConfiguration captures configuration values for the update-deps command.
type CommandConfiguration struct {
	Prefix              string   `mapstructure:"prefix"`
	Scheme              string   `mapstructure:"scheme"`
	FileName            string   `mapstructure:"file_name"`
	Root                string   `mapstructure:"root"`
	ExcludedDirectories []string `mapstructure:"excluded_directories"`
	DryRun              bool     `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration provides baseline configuration values for update-deps.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Prefix:              defaultDependencyPrefixConstant,
		Scheme:              defaultReferenceSchemeConstant,
		FileName:            pxtconfig.DefaultFileName,
		Root:                defaultRootConstant,
		ExcludedDirectories: nil,
		DryRun:              false,
	}
}

// DefaultConfigurationValues produces Viper defaults for update-deps below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationPrefixKeyConstant:              defaults.Prefix,
		rootKey + "." + configurationSchemeKeyConstant:              defaults.Scheme,
		rootKey + "." + configurationFileNameKeyConstant:            defaults.FileName,
		rootKey + "." + configurationRootKeyConstant:                defaults.Root,
		rootKey + "." + configurationExcludedDirectoriesKeyConstant: []string{},
		rootKey + "." + configurationDryRunKeyConstant:              defaults.DryRun,
	}
}

// Sanitize trims configuration values. Blank file names, schemes and roots fall back to defaults;
// the prefix is kept as configured so an empty prefix selects every dependency.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Prefix = strings.TrimSpace(configuration.Prefix)
	sanitized.Scheme = pxtconfig.NormalizeScheme(configuration.Scheme)
	if len(sanitized.Scheme) == 0 {
		sanitized.Scheme = defaults.Scheme
	}
	sanitized.FileName = strings.TrimSpace(configuration.FileName)
	if len(sanitized.FileName) == 0 {
		sanitized.FileName = defaults.FileName
	}
	sanitized.Root = strings.TrimSpace(configuration.Root)
	if len(sanitized.Root) == 0 {
		sanitized.Root = defaults.Root
	}
	sanitized.ExcludedDirectories = trimDirectoryNames(configuration.ExcludedDirectories)

	return sanitized
}

func trimDirectoryNames(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
