package execshell

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

const (
	posixShellNameConstant                    = "sh"
	posixShellCommandFlagConstant             = "-c"
	windowsShellNameConstant                  = "cmd"
	windowsShellCommandFlagConstant           = "/C"
	windowsOperatingSystemNameConstant        = "windows"
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	emptyCommandLineMessageConstant           = "shell command line must not be empty"
	commandFailedTemplateConstant             = "%s exited with code %d"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %v"
	logFieldCommandConstant                   = "command"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
)

var (
	// ErrLoggerNotConfigured indicates that a ShellExecutor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates that a ShellExecutor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrEmptyCommandLine indicates that a shell invocation was requested for a blank command line.
	ErrEmptyCommandLine = errors.New(emptyCommandLineMessageConstant)
)

// CommandName identifies the executable launched for a ShellCommand.
type CommandName string

// Host shell interpreters.
const (
	CommandPOSIXShell   CommandName = CommandName(posixShellNameConstant)
	CommandWindowsShell CommandName = CommandName(windowsShellNameConstant)
)

// CommandDetails describes the arguments and environment of an invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
	// CommandLine holds the original command string for host-shell invocations.
	CommandLine string
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedTemplateConstant, CommandMessageFormatter{}.CommandLabel(failure.Command), failure.Result.ExitCode)
}

// CommandExecutionError reports a command that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, CommandMessageFormatter{}.CommandLabel(failure.Command), failure.Cause)
}

func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// NewShellInvocation builds a command that runs commandLine through the host shell.
func NewShellInvocation(commandLine string, details CommandDetails) (ShellCommand, error) {
	trimmedCommandLine := strings.TrimSpace(commandLine)
	if len(trimmedCommandLine) == 0 {
		return ShellCommand{}, ErrEmptyCommandLine
	}

	shellName := CommandPOSIXShell
	shellFlag := posixShellCommandFlagConstant
	if runtime.GOOS == windowsOperatingSystemNameConstant {
		shellName = CommandWindowsShell
		shellFlag = windowsShellCommandFlagConstant
	}

	invocationDetails := details
	invocationDetails.Arguments = []string{shellFlag, trimmedCommandLine}

	return ShellCommand{Name: shellName, Details: invocationDetails, CommandLine: trimmedCommandLine}, nil
}

// ShellExecutor runs commands, logs their lifecycle and converts failures into typed errors.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observer  CommandEventObserver
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor. Observers receive lifecycle events in addition to the logger.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	activeObservers := make(observerGroup, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			activeObservers = append(activeObservers, observer)
		}
	}

	var observer CommandEventObserver = noopCommandEventObserver{}
	if len(activeObservers) > 0 {
		observer = activeObservers
	}

	return &ShellExecutor{logger: logger, runner: runner, observer: observer}, nil
}

// Execute runs the command. A non-zero exit code yields CommandFailedError together with the captured result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandLabel := executor.formatter.CommandLabel(command)
	executor.logger.Info(
		executor.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, commandLabel),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
	executor.observer.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Warn(
			executor.formatter.BuildExecutionFailureMessage(command, runError),
			zap.String(logFieldCommandConstant, commandLabel),
			zap.Error(runError),
		)
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			executor.formatter.BuildFailureMessage(command, executionResult),
			zap.String(logFieldCommandConstant, commandLabel),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.String(logFieldStandardErrorConstant, executionResult.StandardError),
		)
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Info(
		executor.formatter.BuildSuccessMessage(command),
		zap.String(logFieldCommandConstant, commandLabel),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}

// ExecuteShell runs commandLine through the host shell with the provided details.
func (executor *ShellExecutor) ExecuteShell(executionContext context.Context, commandLine string, details CommandDetails) (ExecutionResult, error) {
	shellCommand, invocationError := NewShellInvocation(commandLine, details)
	if invocationError != nil {
		return ExecutionResult{}, invocationError
	}
	return executor.Execute(executionContext, shellCommand)
}
