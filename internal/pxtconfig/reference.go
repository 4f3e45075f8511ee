package pxtconfig

import "strings"

const (
	schemeSeparatorConstant    = ":"
	referenceSeparatorConstant = "#"
)

// DependencyReference is a dependency pin of the form "scheme:location[#ref]".
type DependencyReference struct {
	raw string
}

// ParseDependencyReference wraps a raw reference string. Any string is accepted; accessors
// report empty values for missing parts.
func ParseDependencyReference(raw string) DependencyReference {
	return DependencyReference{raw: raw}
}

// NormalizeScheme trims scheme and guarantees a single trailing colon, so "github" and "github:" are equivalent.
func NormalizeScheme(scheme string) string {
	trimmedScheme := strings.TrimSuffix(strings.TrimSpace(scheme), schemeSeparatorConstant)
	if len(trimmedScheme) == 0 {
		return ""
	}
	return trimmedScheme + schemeSeparatorConstant
}

// Scheme returns the text before the first colon, or an empty string.
func (reference DependencyReference) Scheme() string {
	scheme, _, found := strings.Cut(reference.raw, schemeSeparatorConstant)
	if !found {
		return ""
	}
	return scheme
}

// UsesScheme reports whether the reference starts with scheme.
func (reference DependencyReference) UsesScheme(scheme string) bool {
	normalizedScheme := NormalizeScheme(scheme)
	return len(normalizedScheme) > 0 && strings.HasPrefix(reference.raw, normalizedScheme)
}

// Base returns everything before the first '#'.
func (reference DependencyReference) Base() string {
	base, _, _ := strings.Cut(reference.raw, referenceSeparatorConstant)
	return base
}

// Ref returns the text after the first '#' and whether a '#' was present.
func (reference DependencyReference) Ref() (string, bool) {
	_, ref, found := strings.Cut(reference.raw, referenceSeparatorConstant)
	return ref, found
}

// WithRef replaces the ref while keeping the base byte-identical.
func (reference DependencyReference) WithRef(ref string) DependencyReference {
	return DependencyReference{raw: reference.Base() + referenceSeparatorConstant + ref}
}

func (reference DependencyReference) String() string {
	return reference.raw
}
