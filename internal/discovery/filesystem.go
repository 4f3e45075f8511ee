// Package discovery locates files of interest below a directory tree.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	hiddenEntryPrefixConstant           = "."
	rootInspectionErrorTemplateConstant = "unable to inspect %s: %w"
	rootNotDirectoryTemplateConstant    = "%s is not a directory"
)

// Matcher reports whether a discovered file should be returned.
type Matcher func(path string, directoryEntry fs.DirEntry) bool

// ExtensionMatcher selects files whose extension equals extension. Matching is case-sensitive.
func ExtensionMatcher(extension string) Matcher {
	normalizedExtension := strings.TrimSpace(extension)
	if len(normalizedExtension) > 0 && !strings.HasPrefix(normalizedExtension, hiddenEntryPrefixConstant) {
		normalizedExtension = hiddenEntryPrefixConstant + normalizedExtension
	}
	return func(path string, _ fs.DirEntry) bool {
		return filepath.Ext(path) == normalizedExtension
	}
}

// FileNameMatcher selects files whose base name equals fileName exactly.
func FileNameMatcher(fileName string) Matcher {
	return func(_ string, directoryEntry fs.DirEntry) bool {
		return directoryEntry.Name() == fileName
	}
}

// Options tunes which parts of the tree are visited.
type Options struct {
	// SkipHidden ignores files and directories whose names start with a dot.
	SkipHidden bool
	// ExcludedDirectories lists directory names that are never descended into.
	ExcludedDirectories []string
}

// FilesystemFileDiscoverer locates files on disk.
type FilesystemFileDiscoverer struct {
	options Options
}

// NewFilesystemFileDiscoverer constructs a file discoverer backed by filepath.WalkDir.
func NewFilesystemFileDiscoverer(options Options) *FilesystemFileDiscoverer {
	return &FilesystemFileDiscoverer{options: options}
}

// DiscoverFiles walks root and returns the sorted paths of regular files accepted by matcher.
// A missing or non-directory root is an error; unreadable entries below root are skipped.
func (discoverer *FilesystemFileDiscoverer) DiscoverFiles(root string, matcher Matcher) ([]string, error) {
	rootInfo, statError := os.Stat(root)
	if statError != nil {
		return nil, fmt.Errorf(rootInspectionErrorTemplateConstant, root, statError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(rootNotDirectoryTemplateConstant, root)
	}

	excludedDirectories := make(map[string]struct{}, len(discoverer.options.ExcludedDirectories))
	for _, directoryName := range discoverer.options.ExcludedDirectories {
		trimmedName := strings.TrimSpace(directoryName)
		if len(trimmedName) > 0 {
			excludedDirectories[trimmedName] = struct{}{}
		}
	}

	var discoveredFiles []string
	walkError := filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return nil
		}

		if path != root && discoverer.options.SkipHidden && strings.HasPrefix(directoryEntry.Name(), hiddenEntryPrefixConstant) {
			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if directoryEntry.IsDir() {
			if _, excluded := excludedDirectories[directoryEntry.Name()]; excluded && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if !directoryEntry.Type().IsRegular() {
			return nil
		}

		if matcher != nil && !matcher(path, directoryEntry) {
			return nil
		}

		discoveredFiles = append(discoveredFiles, path)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Strings(discoveredFiles)
	return discoveredFiles, nil
}
