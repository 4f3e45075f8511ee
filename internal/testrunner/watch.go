package testrunner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/discovery"
)

const (
	watcherCreationErrorTemplateConstant   = "failed to create file watcher: %w"
	watchDirectoryErrorTemplateConstant    = "failed to watch %s: %w"
	watcherErrorLogMessageConstant         = "file watcher error"
	watchRerunFailedLogMessageConstant     = "test re-run failed"
	watchStoppedLogMessageConstant         = "watch stopped"
	watchDirectoryFailedLogMessageConstant = "unable to watch new directory"
	logFieldDirectoryConstant              = "directory"
)

// Watch runs every test file once, then rebuilds individual test files as they are written until
// executionContext is cancelled. Events are debounced and re-runs execute one at a time.
func (service *Service) Watch(executionContext context.Context, options Options) (RunSummary, error) {
	initialSummary, initialError := service.Run(executionContext, options)
	if initialError != nil {
		return initialSummary, initialError
	}

	target, targetError := service.resolveTarget(options)
	if targetError != nil {
		return initialSummary, targetError
	}

	if _, statError := service.fileSystem.Stat(target.testsDirectory); errors.Is(statError, fs.ErrNotExist) {
		return initialSummary, nil
	}

	watcher, watcherError := fsnotify.NewWatcher()
	if watcherError != nil {
		return initialSummary, fmt.Errorf(watcherCreationErrorTemplateConstant, watcherError)
	}
	defer watcher.Close()

	if addError := service.watchDirectoryTree(watcher, target.testsDirectory); addError != nil {
		return initialSummary, addError
	}
	service.reporter.watching(target.displayTestsDirectory, target.extension)

	matcher := discovery.ExtensionMatcher(target.extension)
	pendingTestFiles := make(map[string]struct{})
	var debounceChannel <-chan time.Time

	for {
		select {
		case <-executionContext.Done():
			service.logger.Info(watchStoppedLogMessageConstant, zap.String(logFieldDirectoryConstant, target.testsDirectory))
			return initialSummary, nil
		case watchEvent, open := <-watcher.Events:
			if !open {
				return initialSummary, nil
			}
			if isHiddenBelow(target.testsDirectory, watchEvent.Name) {
				continue
			}
			if watchEvent.Has(fsnotify.Create) {
				if fileInfo, statError := service.fileSystem.Stat(watchEvent.Name); statError == nil && fileInfo.IsDir() {
					service.watchCreatedDirectory(watcher, watchEvent.Name)
					continue
				}
			}
			if !watchEvent.Has(fsnotify.Write) && !watchEvent.Has(fsnotify.Create) {
				continue
			}
			if !matcher(watchEvent.Name, nil) {
				continue
			}
			pendingTestFiles[watchEvent.Name] = struct{}{}
			debounceChannel = time.After(service.watchDebounce)
		case watchError, open := <-watcher.Errors:
			if !open {
				return initialSummary, nil
			}
			service.logger.Warn(watcherErrorLogMessageConstant, zap.Error(watchError))
		case <-debounceChannel:
			debounceChannel = nil
			for _, changedPath := range sortedPaths(pendingTestFiles) {
				if rerunError := service.rerunTestFile(executionContext, target, changedPath); rerunError != nil {
					if executionContext.Err() != nil {
						return initialSummary, nil
					}
					relativePath := relativeSlashPath(target.configurationDirectory, changedPath)
					service.reporter.watchRunFailed(relativePath, rerunError)
					service.logger.Warn(watchRerunFailedLogMessageConstant, zap.String(logFieldTestFileConstant, relativePath), zap.Error(rerunError))
				}
			}
			pendingTestFiles = make(map[string]struct{})
		}
	}
}

// rerunTestFile builds a single changed test file, re-reading the configuration so edits made while watching are honored.
func (service *Service) rerunTestFile(executionContext context.Context, target runTarget, path string) error {
	changedTestFile := newTestFile(target, path)
	service.reporter.changeDetected(changedTestFile.relativePath)

	snapshot, loadError := service.loadConfiguration(target)
	if loadError != nil {
		return loadError
	}

	summary := RunSummary{RunIdentifier: service.runIdentifierGenerator()}
	_, runError := service.runTestFiles(executionContext, target, snapshot, []testFile{changedTestFile}, summary)
	return runError
}

func (service *Service) watchCreatedDirectory(watcher *fsnotify.Watcher, directory string) {
	if addError := service.watchDirectoryTree(watcher, directory); addError != nil {
		service.logger.Warn(watchDirectoryFailedLogMessageConstant, zap.String(logFieldDirectoryConstant, directory), zap.Error(addError))
	}
}

func (service *Service) watchDirectoryTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == root {
				return fmt.Errorf(watchDirectoryErrorTemplateConstant, root, walkError)
			}
			return nil
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if path != root && isHiddenBelow(root, path) {
			return filepath.SkipDir
		}
		if addError := watcher.Add(path); addError != nil {
			return fmt.Errorf(watchDirectoryErrorTemplateConstant, path, addError)
		}
		return nil
	})
}

func sortedPaths(paths map[string]struct{}) []string {
	sorted := make([]string, 0, len(paths))
	for path := range paths {
		sorted = append(sorted, path)
	}
	sort.Strings(sorted)
	return sorted
}
