package testrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/discovery"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/execshell"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/filesystem"
	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/pxtconfig"
)

const (
	executorMissingMessageConstant               = "test command executor not configured"
	commandLineRequiredMessageConstant           = "test command must be provided"
	configurationPathRequiredMessageConstant     = "configuration file path must be provided"
	testsDirectoryRequiredMessageConstant        = "tests directory must be provided"
	pathResolutionErrorTemplateConstant          = "unable to resolve path %s: %w"
	configurationReadErrorTemplateConstant       = "unable to read configuration %s: %w"
	configurationParseErrorTemplateConstant      = "unable to parse configuration %s: %w"
	testDiscoveryErrorTemplateConstant           = "unable to discover test files in %s: %w"
	configurationUpdateErrorTemplateConstant     = "unable to point configuration %s at %s: %w"
	configurationWriteErrorTemplateConstant      = "unable to write configuration %s: %w"
	configurationRestoreErrorTemplateConstant    = "unable to restore configuration %s: %w"
	runStartedLogMessageConstant                 = "test run started"
	runFinishedLogMessageConstant                = "test run finished"
	testFailedLogMessageConstant                 = "test file failed"
	configurationRestoredLogMessageConstant      = "configuration restored"
	configurationRestoreFailedLogMessageConstant = "configuration restore failed"
	logFieldRunIdentifierConstant                = "run_id"
	logFieldConfigurationPathConstant            = "configuration"
	logFieldTestCountConstant                    = "test_files"
	logFieldFailedCountConstant                  = "failed_test_files"
	logFieldTestFileConstant                     = "test_file"
	defaultConfigurationPermissionsConstant      = fs.FileMode(0o644)
	defaultWatchDebounceConstant                 = 300 * time.Millisecond
	relativePathParentPrefixConstant             = ".."
)

// ErrExecutorNotConfigured indicates the service was constructed without a command executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrCommandLineRequired indicates the build command option was blank.
var ErrCommandLineRequired = errors.New(commandLineRequiredMessageConstant)

// ErrConfigurationPathRequired indicates the configuration file option was blank.
var ErrConfigurationPathRequired = errors.New(configurationPathRequiredMessageConstant)

// ErrTestsDirectoryRequired indicates the tests directory option was blank.
var ErrTestsDirectoryRequired = errors.New(testsDirectoryRequiredMessageConstant)

// CommandExecutor runs the build command through the host shell.
type CommandExecutor interface {
	ExecuteShell(executionContext context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// FileDiscoverer locates test sources below a directory.
type FileDiscoverer interface {
	DiscoverFiles(root string, matcher discovery.Matcher) ([]string, error)
}

// RunIdentifierGenerator yields identifiers that tag the logs of a single run.
type RunIdentifierGenerator func() string

// Dependencies enumerates collaborators required by the test runner.
type Dependencies struct {
	Executor               CommandExecutor
	FileSystem             filesystem.FileSystem
	Discoverer             FileDiscoverer
	Logger                 *zap.Logger
	Output                 io.Writer
	RunIdentifierGenerator RunIdentifierGenerator
	WatchDebounce          time.Duration
}

// Options configures a test run.
type Options struct {
	ConfigurationFilePath string
	TestsDirectory        string
	Extension             string
	CommandLine           string
}

// RunSummary captures the observable outcome of a test run.
type RunSummary struct {
	RunIdentifier         string
	DiscoveredTestFiles   []string
	FailedTestFiles       []string
	ConfigurationRestored bool
}

// HasFailures reports whether at least one test file failed to build.
func (summary RunSummary) HasFailures() bool {
	return len(summary.FailedTestFiles) > 0
}

// Service rewrites the project configuration for each test file and runs the build command.
type Service struct {
	executor               CommandExecutor
	fileSystem             filesystem.FileSystem
	discoverer             FileDiscoverer
	logger                 *zap.Logger
	reporter               runReporter
	runIdentifierGenerator RunIdentifierGenerator
	watchDebounce          time.Duration
}

type runTarget struct {
	displayConfigurationPath string
	configurationPath        string
	configurationDirectory   string
	displayTestsDirectory    string
	testsDirectory           string
	extension                string
	commandLine              string
}

type configurationSnapshot struct {
	originalContent []byte
	document        pxtconfig.Document
	permissions     fs.FileMode
}

type testFile struct {
	path         string
	relativePath string
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	discoverer := dependencies.Discoverer
	if discoverer == nil {
		discoverer = discovery.NewFilesystemFileDiscoverer(discovery.Options{SkipHidden: true})
	}

	runIdentifierGenerator := dependencies.RunIdentifierGenerator
	if runIdentifierGenerator == nil {
		runIdentifierGenerator = uuid.NewString
	}

	watchDebounce := dependencies.WatchDebounce
	if watchDebounce <= 0 {
		watchDebounce = defaultWatchDebounceConstant
	}

	return &Service{
		executor:               dependencies.Executor,
		fileSystem:             filesystem.Resolve(dependencies.FileSystem),
		discoverer:             discoverer,
		logger:                 logger,
		reporter:               newReporter(dependencies.Output),
		runIdentifierGenerator: runIdentifierGenerator,
		watchDebounce:          watchDebounce,
	}, nil
}

// Run builds every discovered test file once and restores the original configuration afterwards.
// Build failures are recorded in the summary; configuration, discovery and restore failures are returned.
func (service *Service) Run(executionContext context.Context, options Options) (RunSummary, error) {
	target, targetError := service.resolveTarget(options)
	if targetError != nil {
		return RunSummary{}, targetError
	}

	service.reporter.readingConfiguration(target.displayConfigurationPath)
	snapshot, loadError := service.loadConfiguration(target)
	if loadError != nil {
		return RunSummary{}, loadError
	}

	service.reporter.searchingTestFiles(target.extension, target.displayTestsDirectory)
	testFiles, discoveryError := service.discoverTestFiles(target)
	if discoveryError != nil {
		return RunSummary{}, discoveryError
	}

	summary := RunSummary{RunIdentifier: service.runIdentifierGenerator()}
	if len(testFiles) == 0 {
		service.reporter.noTestFiles(target.extension, target.displayTestsDirectory)
		return summary, nil
	}

	service.reporter.discoveredTestFiles(testFiles)
	return service.runTestFiles(executionContext, target, snapshot, testFiles, summary)
}

func (service *Service) runTestFiles(executionContext context.Context, target runTarget, snapshot configurationSnapshot, testFiles []testFile, summary RunSummary) (resultSummary RunSummary, resultError error) {
	logger := service.logger.With(zap.String(logFieldRunIdentifierConstant, summary.RunIdentifier))
	for _, discoveredTestFile := range testFiles {
		summary.DiscoveredTestFiles = append(summary.DiscoveredTestFiles, discoveredTestFile.relativePath)
	}
	logger.Info(
		runStartedLogMessageConstant,
		zap.String(logFieldConfigurationPathConstant, target.configurationPath),
		zap.Int(logFieldTestCountConstant, len(testFiles)),
	)

	defer func() {
		resultSummary = summary
		restoreError := service.restoreConfiguration(target, snapshot)
		if restoreError != nil {
			logger.Error(configurationRestoreFailedLogMessageConstant, zap.Error(restoreError))
			resultError = errors.Join(resultError, restoreError)
			return
		}
		resultSummary.ConfigurationRestored = true
		logger.Info(configurationRestoredLogMessageConstant, zap.String(logFieldConfigurationPathConstant, target.configurationPath))
	}()

	for testIndex, currentTestFile := range testFiles {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}

		service.reporter.processingTestFile(testIndex+1, len(testFiles), currentTestFile.relativePath)

		updatedDocument, updateError := snapshot.document.WithTestFiles([]string{currentTestFile.relativePath})
		if updateError != nil {
			return summary, fmt.Errorf(configurationUpdateErrorTemplateConstant, target.displayConfigurationPath, currentTestFile.relativePath, updateError)
		}

		writeError := service.fileSystem.WriteFile(target.configurationPath, updatedDocument.Render(), snapshot.permissions)
		if writeError != nil {
			return summary, fmt.Errorf(configurationWriteErrorTemplateConstant, target.displayConfigurationPath, writeError)
		}
		service.reporter.configurationUpdated(target.displayConfigurationPath, currentTestFile.relativePath)

		passed, commandError := service.runCommand(executionContext, target)
		if commandError != nil {
			return summary, commandError
		}

		if passed {
			service.reporter.testPassed(target.commandLine, currentTestFile.relativePath)
			continue
		}

		summary.FailedTestFiles = append(summary.FailedTestFiles, currentTestFile.relativePath)
		service.reporter.testFailed(target.commandLine, currentTestFile.relativePath)
		logger.Warn(testFailedLogMessageConstant, zap.String(logFieldTestFileConstant, currentTestFile.relativePath))
	}

	service.reporter.summary(summary)
	logger.Info(
		runFinishedLogMessageConstant,
		zap.Int(logFieldTestCountConstant, len(testFiles)),
		zap.Int(logFieldFailedCountConstant, len(summary.FailedTestFiles)),
	)

	return summary, nil
}

// runCommand reports whether the build command succeeded. Only cancellation is returned as an error.
func (service *Service) runCommand(executionContext context.Context, target runTarget) (bool, error) {
	service.reporter.runningCommand(target.commandLine)
	executionResult, executionError := service.executor.ExecuteShell(
		executionContext,
		target.commandLine,
		execshell.CommandDetails{WorkingDirectory: target.configurationDirectory},
	)
	if contextError := executionContext.Err(); contextError != nil {
		return false, contextError
	}

	if executionError == nil {
		service.reporter.commandOutput(executionResult)
		return true, nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		service.reporter.commandFailed(target.commandLine, commandFailure.Result)
		return false, nil
	}

	service.reporter.commandUnavailable(target.commandLine, executionError)
	return false, nil
}

func (service *Service) resolveTarget(options Options) (runTarget, error) {
	displayConfigurationPath := strings.TrimSpace(options.ConfigurationFilePath)
	if len(displayConfigurationPath) == 0 {
		return runTarget{}, ErrConfigurationPathRequired
	}
	displayTestsDirectory := strings.TrimSpace(options.TestsDirectory)
	if len(displayTestsDirectory) == 0 {
		return runTarget{}, ErrTestsDirectoryRequired
	}
	commandLine := strings.TrimSpace(options.CommandLine)
	if len(commandLine) == 0 {
		return runTarget{}, ErrCommandLineRequired
	}

	configurationPath, configurationPathError := service.fileSystem.Abs(displayConfigurationPath)
	if configurationPathError != nil {
		return runTarget{}, fmt.Errorf(pathResolutionErrorTemplateConstant, displayConfigurationPath, configurationPathError)
	}
	testsDirectory, testsDirectoryError := service.fileSystem.Abs(displayTestsDirectory)
	if testsDirectoryError != nil {
		return runTarget{}, fmt.Errorf(pathResolutionErrorTemplateConstant, displayTestsDirectory, testsDirectoryError)
	}

	extension := strings.TrimSpace(options.Extension)
	if len(extension) == 0 {
		extension = defaultTestExtensionConstant
	}

	return runTarget{
		displayConfigurationPath: displayConfigurationPath,
		configurationPath:        configurationPath,
		configurationDirectory:   filepath.Dir(configurationPath),
		displayTestsDirectory:    displayTestsDirectory,
		testsDirectory:           testsDirectory,
		extension:                extension,
		commandLine:              commandLine,
	}, nil
}

func (service *Service) loadConfiguration(target runTarget) (configurationSnapshot, error) {
	originalContent, readError := service.fileSystem.ReadFile(target.configurationPath)
	if readError != nil {
		return configurationSnapshot{}, fmt.Errorf(configurationReadErrorTemplateConstant, target.displayConfigurationPath, readError)
	}

	document, parseError := pxtconfig.Parse(originalContent)
	if parseError != nil {
		return configurationSnapshot{}, fmt.Errorf(configurationParseErrorTemplateConstant, target.displayConfigurationPath, parseError)
	}

	return configurationSnapshot{
		originalContent: originalContent,
		document:        document,
		permissions:     filesystem.PermissionsOrDefault(service.fileSystem, target.configurationPath, defaultConfigurationPermissionsConstant),
	}, nil
}

func (service *Service) restoreConfiguration(target runTarget, snapshot configurationSnapshot) error {
	service.reporter.restoringConfiguration(target.displayConfigurationPath)
	writeError := service.fileSystem.WriteFile(target.configurationPath, snapshot.originalContent, snapshot.permissions)
	if writeError != nil {
		return fmt.Errorf(configurationRestoreErrorTemplateConstant, target.displayConfigurationPath, writeError)
	}
	service.reporter.configurationRestored(target.displayConfigurationPath)
	return nil
}

func (service *Service) discoverTestFiles(target runTarget) ([]testFile, error) {
	discoveredPaths, discoveryError := service.discoverer.DiscoverFiles(target.testsDirectory, discovery.ExtensionMatcher(target.extension))
	if discoveryError != nil {
		if errors.Is(discoveryError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(testDiscoveryErrorTemplateConstant, target.displayTestsDirectory, discoveryError)
	}

	testFiles := make([]testFile, 0, len(discoveredPaths))
	for _, discoveredPath := range discoveredPaths {
		testFiles = append(testFiles, newTestFile(target, discoveredPath))
	}
	return testFiles, nil
}

func newTestFile(target runTarget, path string) testFile {
	return testFile{path: path, relativePath: relativeSlashPath(target.configurationDirectory, path)}
}

// relativeSlashPath expresses path relative to baseDirectory with forward slashes.
func relativeSlashPath(baseDirectory string, path string) string {
	relativePath, relativeError := filepath.Rel(baseDirectory, path)
	if relativeError != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(relativePath)
}

// isHiddenBelow reports whether any element of path below root starts with a dot.
func isHiddenBelow(root string, path string) bool {
	relativePath, relativeError := filepath.Rel(root, path)
	if relativeError != nil || strings.HasPrefix(relativePath, relativePathParentPrefixConstant) {
		return false
	}
	for _, element := range strings.Split(filepath.ToSlash(relativePath), "/") {
		if strings.HasPrefix(element, ".") && element != "." {
			return true
		}
	}
	return false
}
