package execshell

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

type observerGroup []CommandEventObserver

func (group observerGroup) CommandStarted(command ShellCommand) {
	for _, observer := range group {
		observer.CommandStarted(command)
	}
}

func (group observerGroup) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range group {
		observer.CommandCompleted(command, result)
	}
}

func (group observerGroup) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range group {
		observer.CommandExecutionFailed(command, failure)
	}
}
