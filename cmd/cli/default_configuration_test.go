package cli

import (
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/depupdate"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/testrunner"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/utils"
)

func TestEmbeddedDefaultConfigurationMatchesCommandDefaults(testInstance *testing.T) {
	configurationContent, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, configurationTypeConstant, configurationType)

	parsedConfiguration := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal(configurationContent, &parsedConfiguration))

	decodedConfiguration := ApplicationConfiguration{}
	require.NoError(testInstance, mapstructure.Decode(parsedConfiguration, &decodedConfiguration))

	expectedConfiguration := ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{
			LogLevel:  string(utils.LogLevelWarn),
			LogFormat: string(utils.LogFormatConsole),
		},
		Tools: ApplicationToolsConfiguration{
			RunTests:           testrunner.DefaultCommandConfiguration(),
			UpdateDependencies: depupdate.DefaultCommandConfiguration(),
		},
	}
	require.Empty(testInstance, cmp.Diff(expectedConfiguration, decodedConfiguration, cmpopts.EquateEmpty()))
}

func TestEmbeddedDefaultConfigurationReturnsCopy(testInstance *testing.T) {
	firstContent, _ := EmbeddedDefaultConfiguration()
	require.NotEmpty(testInstance, firstContent)
	firstContent[0] = '#'

	secondContent, _ := EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, byte('#'), secondContent[0])
}

func TestPersistentFlagChanged(testInstance *testing.T) {
	application, applicationError := NewApplication()
	require.NoError(testInstance, applicationError)

	rootCommand := application.RootCommand()
	require.NoError(testInstance, rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, string(utils.LogLevelDebug)))

	var subcommand *cobra.Command
	for _, candidate := range rootCommand.Commands() {
		if candidate.Name() == runTestsCommandNameConstant {
			subcommand = candidate
		}
	}
	require.NotNil(testInstance, subcommand)

	require.True(testInstance, application.persistentFlagChanged(subcommand, logLevelFlagNameConstant))
	require.False(testInstance, application.persistentFlagChanged(subcommand, logFormatFlagNameConstant))
	require.False(testInstance, application.persistentFlagChanged(nil, logLevelFlagNameConstant))
}

func TestHumanReadableLoggingEnabled(testInstance *testing.T) {
	testCases := []struct {
		name      string
		logFormat string
		expected  bool
	}{
		{name: "console", logFormat: "console", expected: true},
		{name: "console_mixed_case", logFormat: " Console ", expected: true},
		{name: "structured", logFormat: "structured", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			application := &Application{}
			application.configuration.Common.LogFormat = testCase.logFormat
			require.Equal(subtest, testCase.expected, application.humanReadableLoggingEnabled())
		})
	}
}
