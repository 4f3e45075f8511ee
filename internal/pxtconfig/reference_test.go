package pxtconfig_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Forward-Education/pxt-all-fwd-blocks/internal/pxtconfig"
)

func TestDependencyReferenceWithRef(testInstance *testing.T) {
	testCases := []struct {
		name           string
		raw            string
		ref            string
		expectedScheme string
		expectedBase   string
		expectedResult string
	}{
		{
			name:           "replaces_tag",
			raw:            "github:org/repo#v1.0.0",
			ref:            "v1.2.0",
			expectedScheme: "github",
			expectedBase:   "github:org/repo",
			expectedResult: "github:org/repo#v1.2.0",
		},
		{
			name:           "appends_missing_ref",
			raw:            "github:org/repo/sensors",
			ref:            "3f2a9c1",
			expectedScheme: "github",
			expectedBase:   "github:org/repo/sensors",
			expectedResult: "github:org/repo/sensors#3f2a9c1",
		},
		{
			name:           "replaces_everything_after_first_hash",
			raw:            "github:org/repo#v1#extra",
			ref:            "v2",
			expectedScheme: "github",
			expectedBase:   "github:org/repo",
			expectedResult: "github:org/repo#v2",
		},
		{
			name:           "no_scheme",
			raw:            "*",
			ref:            "v2",
			expectedScheme: "",
			expectedBase:   "*",
			expectedResult: "*#v2",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			reference := pxtconfig.ParseDependencyReference(testCase.raw)
			require.Equal(testInstance, testCase.expectedScheme, reference.Scheme())
			require.Equal(testInstance, testCase.expectedBase, reference.Base())

			updated := reference.WithRef(testCase.ref)
			require.Equal(testInstance, testCase.expectedResult, updated.String())
			require.Equal(testInstance, reference.Base(), updated.Base())

			ref, found := updated.Ref()
			require.True(testInstance, found)
			require.Equal(testInstance, testCase.ref, ref)
		})
	}
}

func TestDependencyReferenceUsesScheme(testInstance *testing.T) {
	githubReference := pxtconfig.ParseDependencyReference("github:org/repo#v1.0.0")
	require.True(testInstance, githubReference.UsesScheme("github:"))
	require.True(testInstance, githubReference.UsesScheme(" github "))
	require.False(testInstance, githubReference.UsesScheme("npm"))
	require.False(testInstance, githubReference.UsesScheme(""))

	npmReference := pxtconfig.ParseDependencyReference("npm:somepkg@1.0.0")
	require.False(testInstance, npmReference.UsesScheme("github"))
	_, found := npmReference.Ref()
	require.False(testInstance, found)

	require.Equal(testInstance, "github:", pxtconfig.NormalizeScheme("github"))
	require.Equal(testInstance, "github:", pxtconfig.NormalizeScheme("github:"))
	require.Empty(testInstance, pxtconfig.NormalizeScheme("  "))
}
