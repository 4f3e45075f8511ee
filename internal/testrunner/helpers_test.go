package testrunner_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/execshell"
)

const (
	testConfigurationFileNameConstant = "pxt.json"
	testTestsDirectoryNameConstant    = "tests"
	testCommandLineConstant           = "mkc"
	testOriginalConfigurationConstant = `{"name":"fwd-edu-breakout","testFiles":["tests/original.ts"],"dependencies":{"core":"*"}}`
	testSourceContentConstant         = "basic.showNumber(1)\n"
)

type recordedInvocation struct {
	commandLine      string
	workingDirectory string
	testFiles        []string
}

type executorResponse struct {
	result execshell.ExecutionResult
	err    error
}

// recordingExecutor captures the testFiles list present in the configuration whenever the build command runs.
type recordingExecutor struct {
	mutex             sync.Mutex
	configurationPath string
	responses         []executorResponse
	invocations       []recordedInvocation
	onExecute         func(invocationIndex int)
}

func (executor *recordingExecutor) ExecuteShell(_ context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()

	var testFiles []string
	if content, readError := os.ReadFile(executor.configurationPath); readError == nil {
		for _, element := range gjson.GetBytes(content, "testFiles").Array() {
			testFiles = append(testFiles, element.String())
		}
	}

	invocationIndex := len(executor.invocations)
	executor.invocations = append(executor.invocations, recordedInvocation{
		commandLine:      commandLine,
		workingDirectory: details.WorkingDirectory,
		testFiles:        testFiles,
	})

	if executor.onExecute != nil {
		executor.onExecute(invocationIndex)
	}

	if invocationIndex >= len(executor.responses) {
		return execshell.ExecutionResult{StandardOutput: "Build OK\n"}, nil
	}
	response := executor.responses[invocationIndex]
	return response.result, response.err
}

func (executor *recordingExecutor) recorded() []recordedInvocation {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return append([]recordedInvocation{}, executor.invocations...)
}

func failedBuild(exitCode int, standardError string) executorResponse {
	result := execshell.ExecutionResult{StandardError: standardError, ExitCode: exitCode}
	return executorResponse{
		result: result,
		err:    execshell.CommandFailedError{Command: execshell.ShellCommand{CommandLine: testCommandLineConstant}, Result: result},
	}
}

type synchronizedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (buffer *synchronizedBuffer) Write(data []byte) (int, error) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.Write(data)
}

func (buffer *synchronizedBuffer) String() string {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.String()
}

type extensionWorkspace struct {
	root              string
	configurationPath string
	testsDirectory    string
}

func newExtensionWorkspace(testInstance *testing.T, configurationContent string, testFiles ...string) extensionWorkspace {
	testInstance.Helper()
	root := testInstance.TempDir()
	workspace := extensionWorkspace{
		root:              root,
		configurationPath: filepath.Join(root, testConfigurationFileNameConstant),
		testsDirectory:    filepath.Join(root, testTestsDirectoryNameConstant),
	}
	require.NoError(testInstance, os.WriteFile(workspace.configurationPath, []byte(configurationContent), 0o644))
	for _, testFile := range testFiles {
		testFilePath := filepath.Join(root, filepath.FromSlash(testFile))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(testFilePath), 0o755))
		require.NoError(testInstance, os.WriteFile(testFilePath, []byte(testSourceContentConstant), 0o644))
	}
	return workspace
}

func (workspace extensionWorkspace) configurationContent(testInstance *testing.T) string {
	testInstance.Helper()
	content, readError := os.ReadFile(workspace.configurationPath)
	require.NoError(testInstance, readError)
	return string(content)
}
