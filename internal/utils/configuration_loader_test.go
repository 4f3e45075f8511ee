package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTFWDSCRIPTS"
	testLogLevelKeyConstant                        = "common.log_level"
	testExcludedDirectoriesKeyConstant             = "tools.update_deps.excluded_directories"
	testLogLevelEnvironmentVariableConstant        = "TESTFWDSCRIPTS_COMMON_LOG_LEVEL"
	testExcludedDirectoriesEnvironmentVariable     = "TESTFWDSCRIPTS_TOOLS_UPDATE_DEPS_EXCLUDED_DIRECTORIES"
	testDefaultLogLevelConstant                    = "info"
	testEmbeddedLogLevelConstant                   = "debug"
	testFileLogLevelConstant                       = "warn"
	testEnvironmentLogLevelConstant                = "error"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "common:\n  log_level: %s\n"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	Tools  configurationToolsFixture  `mapstructure:"tools"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationToolsFixture struct {
	UpdateDependencies configurationUpdateFixture `mapstructure:"update_deps"`
}

type configurationUpdateFixture struct {
	ExcludedDirectories []string `mapstructure:"excluded_directories"`
}

func newTestConfigurationLoader(searchPaths ...string) *utils.ConfigurationLoader {
	return utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
		ConfigurationName: testConfigurationNameConstant,
		ConfigurationType: testConfigurationTypeConstant,
		EnvironmentPrefix: testEnvironmentPrefixConstant,
		SearchPaths:       searchPaths,
	})
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{name: "defaults_apply", expectedLogLevel: testDefaultLogLevelConstant},
		{name: "embedded_overrides_defaults", embeddedLogLevel: testEmbeddedLogLevelConstant, expectedLogLevel: testEmbeddedLogLevelConstant},
		{name: "file_overrides_embedded", embeddedLogLevel: testEmbeddedLogLevelConstant, fileLogLevel: testFileLogLevelConstant, expectedLogLevel: testFileLogLevelConstant},
		{name: "environment_overrides_file", fileLogLevel: testFileLogLevelConstant, environmentLogLevel: testEnvironmentLogLevelConstant, expectedLogLevel: testEnvironmentLogLevelConstant},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			temporaryDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(temporaryDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}
			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(testLogLevelEnvironmentVariableConstant, testCase.environmentLogLevel)
			}

			configurationLoader := newTestConfigurationLoader(temporaryDirectory)
			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderFindsFileInSearchPath(testInstance *testing.T) {
	emptyDirectory := testInstance.TempDir()
	workingDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(workingDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, testFileLogLevelConstant)), 0o600))

	loadedConfiguration := configurationFixture{}
	metadata, loadError := newTestConfigurationLoader(emptyDirectory, workingDirectory).LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testFileLogLevelConstant, loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)
	_, loadError := newTestConfigurationLoader().LoadConfiguration(missingPath, nil, &configurationFixture{})
	require.Error(testInstance, loadError)
}

func TestConfigurationLoaderSplitsEnvironmentLists(testInstance *testing.T) {
	testInstance.Setenv(testExcludedDirectoriesEnvironmentVariable, "node_modules,built")

	loadedConfiguration := configurationFixture{}
	_, loadError := newTestConfigurationLoader(testInstance.TempDir()).LoadConfiguration("", map[string]any{testExcludedDirectoriesKeyConstant: []string{}}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"node_modules", "built"}, loadedConfiguration.Tools.UpdateDependencies.ExcludedDirectories)
}
