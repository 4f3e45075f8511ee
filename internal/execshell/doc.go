// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and builds host-shell invocations so configured
// build commands such as "mkc" or "npm run build" run the same way they would
// from a terminal.
package execshell
