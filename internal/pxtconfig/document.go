package pxtconfig

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	// DefaultFileName is the conventional name of a project configuration file.
	DefaultFileName = "pxt.json"
	// TestFilesField lists the test sources compiled by the build tool.
	TestFilesField = "testFiles"
	// DependenciesField maps dependency names to reference strings.
	DependenciesField = "dependencies"

	malformedDocumentMessageConstant = "configuration is not valid JSON"
	notObjectMessageConstant         = "configuration top level is not a JSON object"
	fieldUpdateErrorTemplateConstant = "unable to set %s: %w"
	renderIndentConstant             = "    "
	newlineConstant                  = "\n"
	pathEscapeCharacterConstant      = '\\'
	pathSpecialCharactersConstant    = ".*?|#@!=<>%:\\"
)

var (
	// ErrMalformedDocument reports content that does not parse as JSON.
	ErrMalformedDocument = errors.New(malformedDocumentMessageConstant)
	// ErrNotObject reports valid JSON whose top level is not an object.
	ErrNotObject = errors.New(notObjectMessageConstant)
)

var renderOptions = &pretty.Options{Width: 0, Prefix: "", Indent: renderIndentConstant, SortKeys: false}

// DependencyEntry is a single member of the dependencies object, in document order.
type DependencyEntry struct {
	Name     string
	Value    string
	IsString bool
}

// Document is an immutable view over the raw bytes of a configuration file.
type Document struct {
	content []byte
}

// Parse validates content and wraps it in a Document.
func Parse(content []byte) (Document, error) {
	if !gjson.ValidBytes(content) {
		return Document{}, ErrMalformedDocument
	}
	if !gjson.ParseBytes(content).IsObject() {
		return Document{}, ErrNotObject
	}
	return Document{content: duplicate(content)}, nil
}

// Bytes returns a copy of the document exactly as parsed or last rewritten.
func (document Document) Bytes() []byte {
	return duplicate(document.content)
}

// TestFiles returns the string members of the testFiles array.
func (document Document) TestFiles() []string {
	testFilesValue := gjson.GetBytes(document.content, TestFilesField)
	if !testFilesValue.IsArray() {
		return nil
	}
	var testFiles []string
	for _, element := range testFilesValue.Array() {
		if element.Type == gjson.String {
			testFiles = append(testFiles, element.String())
		}
	}
	return testFiles
}

// WithTestFiles returns a copy of the document whose testFiles field holds exactly paths.
func (document Document) WithTestFiles(paths []string) (Document, error) {
	values := append([]string{}, paths...)
	updatedContent, setError := sjson.SetBytes(duplicate(document.content), TestFilesField, values)
	if setError != nil {
		return Document{}, fmt.Errorf(fieldUpdateErrorTemplateConstant, TestFilesField, setError)
	}
	return Document{content: updatedContent}, nil
}

// HasDependencies reports whether the document carries a dependencies object.
func (document Document) HasDependencies() bool {
	return gjson.GetBytes(document.content, DependenciesField).IsObject()
}

// Dependencies lists the members of the dependencies object in document order.
func (document Document) Dependencies() []DependencyEntry {
	dependenciesValue := gjson.GetBytes(document.content, DependenciesField)
	if !dependenciesValue.IsObject() {
		return nil
	}
	var entries []DependencyEntry
	dependenciesValue.ForEach(func(key gjson.Result, value gjson.Result) bool {
		entries = append(entries, DependencyEntry{
			Name:     key.String(),
			Value:    value.String(),
			IsString: value.Type == gjson.String,
		})
		return true
	})
	return entries
}

// WithDependency returns a copy of the document with dependencies[name] set to value.
func (document Document) WithDependency(name string, value string) (Document, error) {
	dependencyPath := DependenciesField + "." + escapePathComponent(name)
	updatedContent, setError := sjson.SetBytes(duplicate(document.content), dependencyPath, value)
	if setError != nil {
		return Document{}, fmt.Errorf(fieldUpdateErrorTemplateConstant, dependencyPath, setError)
	}
	return Document{content: updatedContent}, nil
}

// Render formats the document with four-space indentation and a trailing newline, preserving key order.
func (document Document) Render() []byte {
	rendered := pretty.PrettyOptions(document.content, renderOptions)
	return EnsureTrailingNewline(rendered)
}

// EnsureTrailingNewline appends a newline to content when it does not already end with one.
func EnsureTrailingNewline(content []byte) []byte {
	if bytes.HasSuffix(content, []byte(newlineConstant)) {
		return content
	}
	return append(duplicate(content), newlineConstant...)
}

func escapePathComponent(component string) string {
	var builder strings.Builder
	for _, character := range component {
		if strings.ContainsRune(pathSpecialCharactersConstant, character) {
			builder.WriteRune(pathEscapeCharacterConstant)
		}
		builder.WriteRune(character)
	}
	return builder.String()
}

func duplicate(content []byte) []byte {
	duplicated := make([]byte, len(content))
	copy(duplicated, content)
	return duplicated
}
