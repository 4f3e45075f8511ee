package depupdate

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	searchingTemplateConstant              = "Searching for %s files in '%s' and its subdirectories...\n"
	noFilesFoundTemplateConstant           = "No '%s' files found in '%s' or its subdirectories.\n"
	processingTemplateConstant             = "\nProcessing: %s\n"
	noDependenciesTemplateConstant         = "  No 'dependencies' section found in '%s'\n"
	noPrefixedDependenciesTemplateConstant = "  No dependencies starting with '%s' found in '%s'\n"
	skippedTemplateConstant                = "  Skipping '%s' in '%s': %s.\n"
	updatedTemplateConstant                = "  Updated '%s' in '%s' to '%s'\n"
	plannedUpdateTemplateConstant          = "  Would update '%s' in '%s' to '%s'\n"
	alreadyAtVersionTemplateConstant       = "  '%s' in '%s' is already at '%s'\n"
	fileFailedTemplateConstant             = "  Error: %v\n"
	summaryTemplateConstant                = "\nUpdated %d of %d files.\n"
	dryRunSummaryTemplateConstant          = "\nDry run: %d of %d files would be updated.\n"
	failedFilesHeaderTemplateConstant      = "Failed to process %d files:\n"
	failedFileTemplateConstant             = "  - %s\n"
)

// updateReporter writes human-readable progress of a dependency update.
type updateReporter struct {
	output       io.Writer
	failureColor *color.Color
	successColor *color.Color
}

func newUpdateReporter(output io.Writer) updateReporter {
	if output == nil {
		output = io.Discard
	}
	return updateReporter{
		output:       output,
		failureColor: color.New(color.FgRed),
		successColor: color.New(color.FgGreen),
	}
}

func (reporter updateReporter) searching(fileName string, root string) {
	fmt.Fprintf(reporter.output, searchingTemplateConstant, fileName, root)
}

func (reporter updateReporter) noFilesFound(fileName string, root string) {
	fmt.Fprintf(reporter.output, noFilesFoundTemplateConstant, fileName, root)
}

func (reporter updateReporter) processing(path string) {
	fmt.Fprintf(reporter.output, processingTemplateConstant, path)
}

func (reporter updateReporter) noDependencies(path string) {
	fmt.Fprintf(reporter.output, noDependenciesTemplateConstant, path)
}

func (reporter updateReporter) noPrefixedDependencies(prefix string, path string) {
	fmt.Fprintf(reporter.output, noPrefixedDependenciesTemplateConstant, prefix, path)
}

func (reporter updateReporter) skipped(name string, path string, reason string) {
	fmt.Fprintf(reporter.output, skippedTemplateConstant, name, path, reason)
}

func (reporter updateReporter) updated(name string, path string, version string, dryRun bool) {
	if dryRun {
		fmt.Fprintf(reporter.output, plannedUpdateTemplateConstant, name, path, version)
		return
	}
	reporter.successColor.Fprintf(reporter.output, updatedTemplateConstant, name, path, version)
}

func (reporter updateReporter) alreadyAtVersion(name string, path string, version string) {
	fmt.Fprintf(reporter.output, alreadyAtVersionTemplateConstant, name, path, version)
}

func (reporter updateReporter) fileFailed(outcome FileOutcome) {
	reporter.failureColor.Fprintf(reporter.output, fileFailedTemplateConstant, outcome.Error)
}

func (reporter updateReporter) summary(summary UpdateSummary, dryRun bool) {
	summaryTemplate := summaryTemplateConstant
	if dryRun {
		summaryTemplate = dryRunSummaryTemplateConstant
	}
	fmt.Fprintf(reporter.output, summaryTemplate, summary.FilesUpdated(), summary.FilesScanned())

	failedOutcomes := summary.FailedFiles()
	if len(failedOutcomes) == 0 {
		return
	}
	reporter.failureColor.Fprintf(reporter.output, failedFilesHeaderTemplateConstant, len(failedOutcomes))
	for _, outcome := range failedOutcomes {
		fmt.Fprintf(reporter.output, failedFileTemplateConstant, outcome.Path)
	}
}
