package execshell_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/execshell"
)

func TestOSCommandRunnerReportsExitCodes(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("POSIX shell required")
	}

	testCases := []struct {
		name             string
		commandLine      string
		expectedExitCode int
		expectedOutput   string
	}{
		{name: "success", commandLine: "echo Build OK", expectedExitCode: 0, expectedOutput: "Build OK\n"},
		{name: "non_zero_exit", commandLine: "echo broken 1>&2; exit 3", expectedExitCode: 3},
		{name: "missing_executable", commandLine: "definitely-not-an-installed-tool-1234", expectedExitCode: 127},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command, invocationError := execshell.NewShellInvocation(testCase.commandLine, execshell.CommandDetails{WorkingDirectory: testInstance.TempDir()})
			require.NoError(testInstance, invocationError)

			result, runError := execshell.NewOSCommandRunner().Run(context.Background(), command)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedExitCode, result.ExitCode)
			if len(testCase.expectedOutput) > 0 {
				require.Equal(testInstance, testCase.expectedOutput, result.StandardOutput)
			}
		})
	}
}

func TestOSCommandRunnerReturnsContextErrorWhenCancelled(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("POSIX shell required")
	}

	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	command, invocationError := execshell.NewShellInvocation("sleep 5", execshell.CommandDetails{})
	require.NoError(testInstance, invocationError)

	_, runError := execshell.NewOSCommandRunner().Run(executionContext, command)
	require.ErrorIs(testInstance, runError, context.Canceled)
}
