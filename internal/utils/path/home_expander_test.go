package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/Forward-Education/pxt-all-fwd-blocks/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/maker"

func TestHomeExpanderExpand(testInstance *testing.T) {
	testCases := []struct {
		name         string
		candidate    string
		expectedPath string
	}{
		{name: "bare_shortcut", candidate: "~", expectedPath: filepath.Join(testHomeDirectoryConstant)},
		{name: "nested_path", candidate: "~/extensions/pxt.json", expectedPath: filepath.Join(testHomeDirectoryConstant, "extensions", "pxt.json")},
		{name: "other_user", candidate: "~maker/pxt.json", expectedPath: "~maker/pxt.json"},
		{name: "relative_path", candidate: "tests", expectedPath: "tests"},
		{name: "empty_path", candidate: "", expectedPath: ""},
	}

	lookups := 0
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		lookups++
		return testHomeDirectoryConstant, nil
	})

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.candidate))
		})
	}
	require.Equal(testInstance, 1, lookups)
}

func TestHomeExpanderLeavesPathsWhenLookupFails(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return "", errors.New("no home")
	})
	require.Equal(testInstance, "~/tests", expander.Expand("~/tests"))

	var nilExpander *pathutils.HomeExpander
	require.Equal(testInstance, "~/tests", nilExpander.Expand("~/tests"))
}
