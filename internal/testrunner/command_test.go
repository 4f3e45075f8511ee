package testrunner_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/testrunner"
)

const (
	testOverrideCommandLine = "npx mkc build"
)

func buildTestCommand(testInstance *testing.T, builder *testrunner.CommandBuilder) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetContext(context.Background())
	return command, outputBuffer
}

func TestBuildReturnsCommand(testInstance *testing.T) {
	builder := testrunner.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, "run-tests", command.Name())
	for _, flagName := range []string{"command", "config-file", "tests-dir", "extension", "fail-on-error", "watch"} {
		require.NotNil(testInstance, command.Flags().Lookup(flagName), flagName)
	}
}

func TestCommandUsesConfigurationAndFlagOverrides(testInstance *testing.T) {
	workspace := newExtensionWorkspace(testInstance, testOriginalConfigurationConstant, "tests/motor.ts", "specs/motor.spec.js")
	executor := &recordingExecutor{configurationPath: workspace.configurationPath}
	builder := &testrunner.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		Executor:       executor,
		ConfigurationProvider: func() testrunner.CommandConfiguration {
			return testrunner.CommandConfiguration{
				CommandLine:           testCommandLineConstant,
				ConfigurationFilePath: workspace.configurationPath,
				TestsDirectory:        workspace.testsDirectory,
			}
		},
	}
	command, outputBuffer := buildTestCommand(testInstance, builder)

	require.NoError(testInstance, command.Flags().Set("command", testOverrideCommandLine))
	require.NoError(testInstance, command.RunE(command, []string{}))

	invocations := executor.recorded()
	require.Len(testInstance, invocations, 1)
	require.Equal(testInstance, testOverrideCommandLine, invocations[0].commandLine)
	require.Equal(testInstance, []string{"tests/motor.ts"}, invocations[0].testFiles)
	require.Contains(testInstance, outputBuffer.String(), "All tests passed successfully.")
	require.Equal(testInstance, testOriginalConfigurationConstant, workspace.configurationContent(testInstance))
}

func TestCommandFailOnError(testInstance *testing.T) {
	testCases := []struct {
		name        string
		failOnError bool
		expectError bool
	}{
		{name: "failures_reported_only", failOnError: false, expectError: false},
		{name: "failures_fail_command", failOnError: true, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			workspace := newExtensionWorkspace(testInstance, testOriginalConfigurationConstant, "tests/motor.ts")
			executor := &recordingExecutor{
				configurationPath: workspace.configurationPath,
				responses:         []executorResponse{failedBuild(1, testCompilerErrorMessage)},
			}
			builder := &testrunner.CommandBuilder{
				Executor: executor,
				ConfigurationProvider: func() testrunner.CommandConfiguration {
					return testrunner.CommandConfiguration{
						ConfigurationFilePath: workspace.configurationPath,
						TestsDirectory:        workspace.testsDirectory,
						FailOnError:           testCase.failOnError,
					}
				},
			}
			command, outputBuffer := buildTestCommand(testInstance, builder)

			runError := command.RunE(command, []string{})
			if testCase.expectError {
				require.ErrorIs(testInstance, runError, testrunner.ErrTestsFailed)
				require.ErrorContains(testInstance, runError, "1 of 1")
			} else {
				require.NoError(testInstance, runError)
			}
			require.Contains(testInstance, outputBuffer.String(), "--- Summary of Failed Tests ---")
			require.Equal(testInstance, testCommandLineConstant, executor.recorded()[0].commandLine)
		})
	}
}

func TestCommandFailOnErrorFlagOverridesConfiguration(testInstance *testing.T) {
	workspace := newExtensionWorkspace(testInstance, testOriginalConfigurationConstant, "tests/motor.ts")
	executor := &recordingExecutor{
		configurationPath: workspace.configurationPath,
		responses:         []executorResponse{failedBuild(1, testCompilerErrorMessage)},
	}
	builder := &testrunner.CommandBuilder{
		Executor: executor,
		ConfigurationProvider: func() testrunner.CommandConfiguration {
			return testrunner.CommandConfiguration{
				ConfigurationFilePath: workspace.configurationPath,
				TestsDirectory:        workspace.testsDirectory,
				FailOnError:           true,
			}
		},
	}
	command, _ := buildTestCommand(testInstance, builder)

	require.NoError(testInstance, command.Flags().Set("fail-on-error", "false"))
	require.NoError(testInstance, command.RunE(command, []string{}))
}
