package testrunner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/execshell"
)

const (
	readingConfigurationTemplateConstant   = "Reading original %s...\n"
	searchingTestFilesTemplateConstant     = "Searching for %s files in '%s' directory...\n"
	noTestFilesTemplateConstant            = "No %s files found in '%s'. Exiting.\n"
	discoveredTestFilesTemplateConstant    = "Found %d test files:\n"
	listItemTemplateConstant               = "  - %s\n"
	processingTestFileTemplateConstant     = "\n--- Processing test file %d/%d: %s ---\n"
	configurationUpdatedTemplateConstant   = "Updating '%s' with testFiles: [%s]\n"
	runningCommandTemplateConstant         = "\n--- Running command: %s ---\n"
	commandOutputHeaderConstant            = "Command output:"
	commandErrorsHeaderConstant            = "Command errors (stderr):"
	commandFailedTemplateConstant          = "Error: Command '%s' failed with exit code %d\n"
	commandUnavailableTemplateConstant     = "Error: Command '%s' could not be run: %v\n"
	standardOutputHeaderConstant           = "STDOUT:"
	standardErrorHeaderConstant            = "STDERR:"
	testPassedTemplateConstant             = "Successfully ran '%s' for %s.\n"
	testFailedTemplateConstant             = "Warning: Command '%s' failed for %s. Continuing to next test.\n"
	failedSummaryHeaderConstant            = "\n--- Summary of Failed Tests ---"
	failedSummaryFooterConstant            = "-------------------------------"
	allPassedMessageConstant               = "\nAll tests passed successfully."
	restoringConfigurationTemplateConstant = "\nRestoring original %s...\n"
	configurationRestoredTemplateConstant  = "Original %s restored successfully.\n"
	watchingTemplateConstant               = "\nWatching '%s' for changes to %s files. Press Ctrl+C to stop.\n"
	changeDetectedTemplateConstant         = "\nChange detected: %s\n"
	watchRunFailedTemplateConstant         = "Error: re-run of %s failed: %v\n"
)

// runReporter writes human-readable progress of a test run.
type runReporter struct {
	output         io.Writer
	failureColor   *color.Color
	successColor   *color.Color
	highlightColor *color.Color
}

func newReporter(output io.Writer) runReporter {
	if output == nil {
		output = io.Discard
	}
	return runReporter{
		output:         output,
		failureColor:   color.New(color.FgRed, color.Bold),
		successColor:   color.New(color.FgGreen, color.Bold),
		highlightColor: color.New(color.FgCyan),
	}
}

func (reporter runReporter) readingConfiguration(configurationPath string) {
	fmt.Fprintf(reporter.output, readingConfigurationTemplateConstant, configurationPath)
}

func (reporter runReporter) searchingTestFiles(extension string, testsDirectory string) {
	fmt.Fprintf(reporter.output, searchingTestFilesTemplateConstant, extension, testsDirectory)
}

func (reporter runReporter) noTestFiles(extension string, testsDirectory string) {
	fmt.Fprintf(reporter.output, noTestFilesTemplateConstant, extension, testsDirectory)
}

func (reporter runReporter) discoveredTestFiles(testFiles []testFile) {
	fmt.Fprintf(reporter.output, discoveredTestFilesTemplateConstant, len(testFiles))
	for _, discoveredTestFile := range testFiles {
		fmt.Fprintf(reporter.output, listItemTemplateConstant, discoveredTestFile.relativePath)
	}
}

func (reporter runReporter) processingTestFile(position int, total int, relativePath string) {
	reporter.highlightColor.Fprintf(reporter.output, processingTestFileTemplateConstant, position, total, relativePath)
}

func (reporter runReporter) configurationUpdated(configurationPath string, relativePath string) {
	fmt.Fprintf(reporter.output, configurationUpdatedTemplateConstant, configurationPath, relativePath)
}

func (reporter runReporter) runningCommand(commandLine string) {
	fmt.Fprintf(reporter.output, runningCommandTemplateConstant, commandLine)
}

func (reporter runReporter) commandOutput(result execshell.ExecutionResult) {
	fmt.Fprintln(reporter.output, commandOutputHeaderConstant)
	fmt.Fprintln(reporter.output, strings.TrimRight(result.StandardOutput, "\n"))
	if len(strings.TrimSpace(result.StandardError)) > 0 {
		fmt.Fprintln(reporter.output, commandErrorsHeaderConstant)
		fmt.Fprintln(reporter.output, strings.TrimRight(result.StandardError, "\n"))
	}
}

func (reporter runReporter) commandFailed(commandLine string, result execshell.ExecutionResult) {
	reporter.failureColor.Fprintf(reporter.output, commandFailedTemplateConstant, commandLine, result.ExitCode)
	fmt.Fprintln(reporter.output, standardOutputHeaderConstant)
	fmt.Fprintln(reporter.output, strings.TrimRight(result.StandardOutput, "\n"))
	fmt.Fprintln(reporter.output, standardErrorHeaderConstant)
	fmt.Fprintln(reporter.output, strings.TrimRight(result.StandardError, "\n"))
}

func (reporter runReporter) commandUnavailable(commandLine string, failure error) {
	reporter.failureColor.Fprintf(reporter.output, commandUnavailableTemplateConstant, commandLine, failure)
}

func (reporter runReporter) testPassed(commandLine string, relativePath string) {
	fmt.Fprintf(reporter.output, testPassedTemplateConstant, commandLine, relativePath)
}

func (reporter runReporter) testFailed(commandLine string, relativePath string) {
	fmt.Fprintf(reporter.output, testFailedTemplateConstant, commandLine, relativePath)
}

func (reporter runReporter) summary(summary RunSummary) {
	if !summary.HasFailures() {
		reporter.successColor.Fprintln(reporter.output, allPassedMessageConstant)
		return
	}
	reporter.failureColor.Fprintln(reporter.output, failedSummaryHeaderConstant)
	for _, failedTestFile := range summary.FailedTestFiles {
		fmt.Fprintf(reporter.output, listItemTemplateConstant, failedTestFile)
	}
	reporter.failureColor.Fprintln(reporter.output, failedSummaryFooterConstant)
}

func (reporter runReporter) restoringConfiguration(configurationPath string) {
	fmt.Fprintf(reporter.output, restoringConfigurationTemplateConstant, configurationPath)
}

func (reporter runReporter) configurationRestored(configurationPath string) {
	fmt.Fprintf(reporter.output, configurationRestoredTemplateConstant, configurationPath)
}

func (reporter runReporter) watching(testsDirectory string, extension string) {
	reporter.highlightColor.Fprintf(reporter.output, watchingTemplateConstant, testsDirectory, extension)
}

func (reporter runReporter) changeDetected(relativePath string) {
	reporter.highlightColor.Fprintf(reporter.output, changeDetectedTemplateConstant, relativePath)
}

func (reporter runReporter) watchRunFailed(relativePath string, failure error) {
	reporter.failureColor.Fprintf(reporter.output, watchRunFailedTemplateConstant, relativePath, failure)
}
