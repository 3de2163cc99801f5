package reflow

import (
	"errors"
	"testing"
)

func TestParseFeatures(testingHandle *testing.T) {
	testingHandle.Parallel()

	testCases := []struct {
		name             string
		value            string
		expectedFeatures Features
		expectedKeep     KeepWhitespace
		expectedError    error
	}{
		{
			name:             "comma_and_space_separated",
			value:            "breaking-start-marker, modify-nbsp",
			expectedFeatures: FeatureBreakStartMarker | FeatureModifyNbsp,
		},
		{
			name:         "legacy_whitespace_names",
			value:        "keep-spaces-in-links,keep-newlines",
			expectedKeep: KeepInLinks | KeepLinebreaks,
		},
		{
			name:             "legacy_names_without_effect",
			value:            "keep-inline-html keep-footnotes modify-tasklists modify-tables modify-nbsp",
			expectedFeatures: FeatureModifyNbsp,
		},
		{
			name:  "empty",
			value: "",
		},
		{
			name:          "unknown_name",
			value:         "modify-nbsp,wrap-everything",
			expectedError: ErrInvalidConfiguration,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestingHandle *testing.T) {
			subTestingHandle.Parallel()
			features, keep, parseError := ParseFeatures(testCase.value)
			if testCase.expectedError != nil {
				if !errors.Is(parseError, testCase.expectedError) {
					subTestingHandle.Fatalf("expected %v, got %v", testCase.expectedError, parseError)
				}
				return
			}
			if parseError != nil {
				subTestingHandle.Fatalf("ParseFeatures error: %v", parseError)
			}
			if features != testCase.expectedFeatures || keep != testCase.expectedKeep {
				subTestingHandle.Fatalf("expected features %d and keep %d, got %d and %d", testCase.expectedFeatures, testCase.expectedKeep, features, keep)
			}
		})
	}
}
