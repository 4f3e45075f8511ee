// Package testrunner compiles each test source of a MakeCode extension in isolation by pointing the
// project configuration's testFiles list at one file at a time and invoking the build command.
//
// The original configuration bytes are written back on every exit path, including cancellation.
package testrunner
