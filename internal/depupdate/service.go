package depupdate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/discovery"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/filesystem"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/pxtconfig"
)

const (
	versionRequiredMessageConstant         = "target version must be provided"
	fileDiscoveryErrorTemplateConstant     = "unable to search %s for %s files: %w"
	fileReadErrorTemplateConstant          = "unable to read %s: %w"
	fileParseErrorTemplateConstant         = "unable to parse %s: %w"
	dependencyUpdateErrorTemplateConstant  = "unable to update dependency %s in %s: %w"
	fileWriteErrorTemplateConstant         = "unable to write %s: %w"
	schemeMismatchReasonTemplateConstant   = "not a %s dependency reference"
	nonStringValueReasonConstant           = "dependency value is not a string"
	defaultFilePermissionsConstant         = fs.FileMode(0o644)
	fileProcessingFailedLogMessageConstant = "configuration file processing failed"
	fileUpdatedLogMessageConstant          = "configuration file updated"
	updateFinishedLogMessageConstant       = "dependency update finished"
	logFieldPathConstant                   = "path"
	logFieldVersionConstant                = "version"
	logFieldUpdatedDependenciesConstant    = "updated_dependencies"
	logFieldFilesScannedConstant           = "files_scanned"
	logFieldFilesUpdatedConstant           = "files_updated"
	logFieldFilesFailedConstant            = "files_failed"
	logFieldDryRunConstant                 = "dry_run"
	trailingNewlineConstant                = "\n"
)

// ErrVersionRequired indicates the target version was blank.
var ErrVersionRequired = errors.New(versionRequiredMessageConstant)

// FileDiscoverer locates configuration files below a directory.
type FileDiscoverer interface {
	DiscoverFiles(root string, matcher discovery.Matcher) ([]string, error)
}

// Dependencies enumerates collaborators required by the dependency updater.
type Dependencies struct {
	FileSystem filesystem.FileSystem
	Discoverer FileDiscoverer
	Logger     *zap.Logger
	Output     io.Writer
}

// Options configures a dependency update.
type Options struct {
	Version             string
	Prefix              string
	Scheme              string
	FileName            string
	Root                string
	ExcludedDirectories []string
	DryRun              bool
}

// SkippedDependency names a prefixed dependency that was left untouched and why.
type SkippedDependency struct {
	Name   string
	Reason string
}

// FileOutcome captures what happened to a single configuration file.
type FileOutcome struct {
	Path                  string
	HasDependencies       bool
	UpdatedDependencies   []string
	UnchangedDependencies []string
	SkippedDependencies   []SkippedDependency
	Rewritten             bool
	NewlineAppended       bool
	Error                 error
}

// UpdateSummary aggregates the outcome of every configuration file visited.
type UpdateSummary struct {
	Files []FileOutcome
}

// FilesScanned reports how many configuration files were found.
func (summary UpdateSummary) FilesScanned() int {
	return len(summary.Files)
}

// FilesUpdated reports how many configuration files had at least one dependency updated.
func (summary UpdateSummary) FilesUpdated() int {
	updatedCount := 0
	for _, outcome := range summary.Files {
		if len(outcome.UpdatedDependencies) > 0 && outcome.Error == nil {
			updatedCount++
		}
	}
	return updatedCount
}

// FailedFiles lists the outcomes that ended with an error.
func (summary UpdateSummary) FailedFiles() []FileOutcome {
	var failedOutcomes []FileOutcome
	for _, outcome := range summary.Files {
		if outcome.Error != nil {
			failedOutcomes = append(failedOutcomes, outcome)
		}
	}
	return failedOutcomes
}

// Service rewrites dependency references in project configuration files.
type Service struct {
	fileSystem filesystem.FileSystem
	discoverer FileDiscoverer
	logger     *zap.Logger
	reporter   updateReporter
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) *Service {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fileSystem: filesystem.Resolve(dependencies.FileSystem),
		discoverer: dependencies.Discoverer,
		logger:     logger,
		reporter:   newUpdateReporter(dependencies.Output),
	}
}

// Update visits every configuration file below options.Root. Failures reading, parsing or writing a file
// are recorded on its outcome and do not stop the walk; only invalid options, an unreadable root or
// cancellation are returned as errors.
func (service *Service) Update(executionContext context.Context, options Options) (UpdateSummary, error) {
	resolvedOptions, optionsError := resolveOptions(options)
	if optionsError != nil {
		return UpdateSummary{}, optionsError
	}

	service.reporter.searching(resolvedOptions.FileName, resolvedOptions.Root)
	discoverer := service.discoverer
	if discoverer == nil {
		discoverer = discovery.NewFilesystemFileDiscoverer(discovery.Options{ExcludedDirectories: resolvedOptions.ExcludedDirectories})
	}
	configurationPaths, discoveryError := discoverer.DiscoverFiles(resolvedOptions.Root, discovery.FileNameMatcher(resolvedOptions.FileName))
	if discoveryError != nil {
		return UpdateSummary{}, fmt.Errorf(fileDiscoveryErrorTemplateConstant, resolvedOptions.Root, resolvedOptions.FileName, discoveryError)
	}

	summary := UpdateSummary{}
	if len(configurationPaths) == 0 {
		service.reporter.noFilesFound(resolvedOptions.FileName, resolvedOptions.Root)
		return summary, nil
	}

	for _, configurationPath := range configurationPaths {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}

		outcome := service.processFile(configurationPath, resolvedOptions)
		if outcome.Error != nil {
			service.reporter.fileFailed(outcome)
			service.logger.Warn(fileProcessingFailedLogMessageConstant, zap.String(logFieldPathConstant, configurationPath), zap.Error(outcome.Error))
		}
		summary.Files = append(summary.Files, outcome)
	}

	service.reporter.summary(summary, resolvedOptions.DryRun)
	service.logger.Info(
		updateFinishedLogMessageConstant,
		zap.String(logFieldVersionConstant, resolvedOptions.Version),
		zap.Int(logFieldFilesScannedConstant, summary.FilesScanned()),
		zap.Int(logFieldFilesUpdatedConstant, summary.FilesUpdated()),
		zap.Int(logFieldFilesFailedConstant, len(summary.FailedFiles())),
		zap.Bool(logFieldDryRunConstant, resolvedOptions.DryRun),
	)

	return summary, nil
}

func (service *Service) processFile(configurationPath string, options Options) FileOutcome {
	outcome := FileOutcome{Path: configurationPath}
	service.reporter.processing(configurationPath)

	originalContent, readError := service.fileSystem.ReadFile(configurationPath)
	if readError != nil {
		outcome.Error = fmt.Errorf(fileReadErrorTemplateConstant, configurationPath, readError)
		return outcome
	}

	document, parseError := pxtconfig.Parse(originalContent)
	if parseError != nil {
		outcome.Error = fmt.Errorf(fileParseErrorTemplateConstant, configurationPath, parseError)
		return outcome
	}

	outcome.HasDependencies = document.HasDependencies()
	if !outcome.HasDependencies {
		service.reporter.noDependencies(configurationPath)
		return service.finishUnchanged(outcome, originalContent, options)
	}

	updatedDocument := document
	prefixMatched := false
	for _, dependency := range document.Dependencies() {
		if !strings.HasPrefix(dependency.Name, options.Prefix) {
			continue
		}
		prefixMatched = true

		if !dependency.IsString {
			outcome.SkippedDependencies = append(outcome.SkippedDependencies, SkippedDependency{Name: dependency.Name, Reason: nonStringValueReasonConstant})
			service.reporter.skipped(dependency.Name, configurationPath, nonStringValueReasonConstant)
			continue
		}

		reference := pxtconfig.ParseDependencyReference(dependency.Value)
		if !reference.UsesScheme(options.Scheme) {
			skipReason := fmt.Sprintf(schemeMismatchReasonTemplateConstant, options.Scheme)
			outcome.SkippedDependencies = append(outcome.SkippedDependencies, SkippedDependency{Name: dependency.Name, Reason: skipReason})
			service.reporter.skipped(dependency.Name, configurationPath, skipReason)
			continue
		}

		updatedReference := reference.WithRef(options.Version)
		if updatedReference.String() == dependency.Value {
			outcome.UnchangedDependencies = append(outcome.UnchangedDependencies, dependency.Name)
			service.reporter.alreadyAtVersion(dependency.Name, configurationPath, options.Version)
			continue
		}

		nextDocument, setError := updatedDocument.WithDependency(dependency.Name, updatedReference.String())
		if setError != nil {
			outcome.Error = fmt.Errorf(dependencyUpdateErrorTemplateConstant, dependency.Name, configurationPath, setError)
			return outcome
		}
		updatedDocument = nextDocument
		outcome.UpdatedDependencies = append(outcome.UpdatedDependencies, dependency.Name)
		service.reporter.updated(dependency.Name, configurationPath, options.Version, options.DryRun)
	}

	if !prefixMatched {
		service.reporter.noPrefixedDependencies(options.Prefix, configurationPath)
	}

	if len(outcome.UpdatedDependencies) == 0 {
		return service.finishUnchanged(outcome, originalContent, options)
	}

	if options.DryRun {
		return outcome
	}

	permissions := filesystem.PermissionsOrDefault(service.fileSystem, configurationPath, defaultFilePermissionsConstant)
	writeError := service.fileSystem.WriteFile(configurationPath, updatedDocument.Render(), permissions)
	if writeError != nil {
		outcome.Error = fmt.Errorf(fileWriteErrorTemplateConstant, configurationPath, writeError)
		return outcome
	}
	outcome.Rewritten = true
	service.logger.Info(
		fileUpdatedLogMessageConstant,
		zap.String(logFieldPathConstant, configurationPath),
		zap.Strings(logFieldUpdatedDependenciesConstant, outcome.UpdatedDependencies),
	)

	return outcome
}

// finishUnchanged leaves the file byte-identical apart from appending a missing trailing newline.
func (service *Service) finishUnchanged(outcome FileOutcome, originalContent []byte, options Options) FileOutcome {
	if bytes.HasSuffix(originalContent, []byte(trailingNewlineConstant)) || options.DryRun {
		return outcome
	}

	permissions := filesystem.PermissionsOrDefault(service.fileSystem, outcome.Path, defaultFilePermissionsConstant)
	writeError := service.fileSystem.WriteFile(outcome.Path, pxtconfig.EnsureTrailingNewline(originalContent), permissions)
	if writeError != nil {
		outcome.Error = fmt.Errorf(fileWriteErrorTemplateConstant, outcome.Path, writeError)
		return outcome
	}
	outcome.NewlineAppended = true
	return outcome
}

func resolveOptions(options Options) (Options, error) {
	resolved := options
	if len(strings.TrimSpace(options.Version)) == 0 {
		return Options{}, ErrVersionRequired
	}

	sanitizedConfiguration := CommandConfiguration{
		Prefix:              options.Prefix,
		Scheme:              options.Scheme,
		FileName:            options.FileName,
		Root:                options.Root,
		ExcludedDirectories: options.ExcludedDirectories,
	}.Sanitize()

	resolved.Prefix = sanitizedConfiguration.Prefix
	resolved.Scheme = sanitizedConfiguration.Scheme
	resolved.FileName = sanitizedConfiguration.FileName
	resolved.Root = sanitizedConfiguration.Root
	resolved.ExcludedDirectories = sanitizedConfiguration.ExcludedDirectories

	return resolved, nil
}
