package upstream

import (
	"context"
	"os/exec"
	"reflect"
	"testing"
)

func TestParse(testingHandle *testing.T) {
	testingHandle.Parallel()

	testCases := []struct {
		name               string
		command            string
		arguments          string
		separator          string
		expected           Command
		expectedConfigured bool
	}{
		{
			name:               "nothing_configured",
			expectedConfigured: false,
		},
		{
			name:               "first_argument_is_command",
			arguments:          "prettier --parser=markdown",
			expected:           Command{Executable: "prettier", Arguments: []string{"--parser=markdown"}},
			expectedConfigured: true,
		},
		{
			name:               "explicit_command_with_separator",
			command:            "prettier",
			arguments:          "--parser=markdown;--prose-wrap=never",
			separator:          ";",
			expected:           Command{Executable: "prettier", Arguments: []string{"--parser=markdown", "--prose-wrap=never"}},
			expectedConfigured: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestingHandle *testing.T) {
			subTestingHandle.Parallel()
			command, configured := Parse(testCase.command, testCase.arguments, testCase.separator)
			if configured != testCase.expectedConfigured {
				subTestingHandle.Fatalf("expected configured=%t, got %t", testCase.expectedConfigured, configured)
			}
			if configured && !reflect.DeepEqual(command, testCase.expected) {
				subTestingHandle.Fatalf("expected %+v, got %+v", testCase.expected, command)
			}
		})
	}
}

func TestRunPipesInput(testingHandle *testing.T) {
	if _, lookError := exec.LookPath("cat"); lookError != nil {
		testingHandle.Skip("cat is not available")
	}
	output, runError := Command{Executable: "cat"}.Run(context.Background(), testingHandle.TempDir(), "some text\n")
	if runError != nil {
		testingHandle.Fatalf("Run error: %v", runError)
	}
	if output != "some text\n" {
		testingHandle.Fatalf("unexpected output %q", output)
	}
}

func TestRunReportsFailures(testingHandle *testing.T) {
	if _, lookError := exec.LookPath("false"); lookError != nil {
		testingHandle.Skip("false is not available")
	}
	if _, runError := (Command{Executable: "false"}).Run(context.Background(), testingHandle.TempDir(), ""); runError == nil {
		testingHandle.Fatalf("expected an error for a failing formatter")
	}
	if _, runError := (Command{}).Run(context.Background(), ".", ""); runError == nil {
		testingHandle.Fatalf("expected an error for a missing executable")
	}
}
