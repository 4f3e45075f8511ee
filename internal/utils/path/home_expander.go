// Package pathutils normalizes file system paths supplied through flags and configuration.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant          = "~"
	forwardSlashSeparatorConstant = "/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites a leading home shortcut in configured paths. The home directory is resolved once.
type HomeExpander struct {
	resolveHomeDirectory func() (string, error)
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{resolveHomeDirectory: sync.OnceValues(provider)}
}

// Expand replaces a leading "~" or "~/" with the home directory. Other paths, including "~user" forms,
// and every path on a nil expander or failed home lookup are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, homeShortcutConstant)
	trimmedRemainder := strings.TrimLeft(remainder, forwardSlashSeparatorConstant+string(filepath.Separator))
	if len(remainder) > 0 && len(trimmedRemainder) == len(remainder) {
		return candidatePath
	}

	homeDirectory, homeDirectoryError := expander.resolveHomeDirectory()
	if homeDirectoryError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, trimmedRemainder)
}
