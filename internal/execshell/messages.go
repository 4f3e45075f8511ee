package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	succeededMessageTemplateConstant        = "Completed %s"
	failedMessageTemplateConstant           = "%s failed with exit code %d"
	executionFailureMessageTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	argumentsJoinSeparatorConstant          = " "
	unknownFailureMessageConstant           = "unknown error"
)

// CommandMessageFormatter renders human-readable descriptions of command lifecycle events.
type CommandMessageFormatter struct{}

// CommandLabel describes the command as a user would type it. Host-shell
// invocations are labelled by their command line rather than the interpreter.
func (formatter CommandMessageFormatter) CommandLabel(command ShellCommand) string {
	if len(command.CommandLine) > 0 {
		return command.CommandLine
	}
	commandParts := []string{string(command.Name)}
	commandParts = append(commandParts, command.Details.Arguments...)
	return strings.TrimSpace(strings.Join(commandParts, argumentsJoinSeparatorConstant))
}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.labelWithWorkingDirectory(command))
}

// BuildSuccessMessage formats the message describing a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(succeededMessageTemplateConstant, formatter.labelWithWorkingDirectory(command))
}

// BuildFailureMessage formats the message describing a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	message := fmt.Sprintf(failedMessageTemplateConstant, formatter.labelWithWorkingDirectory(command), result.ExitCode)
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) == 0 {
		return message
	}
	return message + fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

// BuildExecutionFailureMessage formats the message describing a command that could not run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(executionFailureMessageTemplateConstant, formatter.labelWithWorkingDirectory(command), failureMessage)
}

func (formatter CommandMessageFormatter) labelWithWorkingDirectory(command ShellCommand) string {
	label := formatter.CommandLabel(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return label
	}
	return label + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}
