package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/temirov/slw/internal/commands"
	"github.com/temirov/slw/internal/config"
	"github.com/temirov/slw/internal/reflow"
	"github.com/temirov/slw/internal/types"
)

func newProcessor(mode string, flags config.Settings) *commands.Processor {
	return &commands.Processor{Loader: config.NewLoader(""), Flags: flags, Mode: mode}
}

func TestFormatDocumentAppliesConfigurationCascade(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeFile(testingHandle, filepath.Join(rootDirectory, ".slw.toml"), "max-width = 20\n")

	testCases := []struct {
		name     string
		document string
		flags    config.Settings
		expected string
	}{
		{
			name:     "configuration_file_width",
			document: "alpha beta gamma delta epsilon\n",
			expected: "alpha beta gamma\ndelta epsilon\n",
		},
		{
			name:     "front_matter_overrides_file",
			document: "---\nslw-toml: |\n  max-width = 10\n---\none two three four\n",
			expected: "---\nslw-toml: |\n  max-width = 10\n---\none two\nthree four\n",
		},
		{
			name:     "flags_override_front_matter",
			document: "---\nslw-toml: |\n  max-width = 10\n---\none two three four\n",
			flags:    config.Settings{MaxWidth: func() *int { width := 0; return &width }()},
			expected: "---\nslw-toml: |\n  max-width = 10\n---\none two three four\n",
		},
		{
			name:     "sentences_split",
			document: "First one. Second one.\n",
			expected: "First one.\nSecond one.\n",
		},
		{
			name:     "invalid_front_matter_yaml_is_a_warning",
			document: "---\nkey: [unclosed\n---\nshort text\n",
			expected: "---\nkey: [unclosed\n---\nshort text\n",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			outcome, formatError := newProcessor(types.ModeFormat, testCase.flags).FormatDocument(context.Background(), testCase.document, rootDirectory)
			if formatError != nil {
				testingHandle.Fatalf("FormatDocument error: %v", formatError)
			}
			if difference := cmp.Diff(testCase.expected, outcome.Processed); difference != "" {
				testingHandle.Fatalf("unexpected output (-want +got):\n%s", difference)
			}
		})
	}
}

func TestFormatDocumentEnvironmentOverridesFrontMatter(testingHandle *testing.T) {
	environment := config.Settings{}
	if setError := environment.Set(config.KeyMaxWidth, "0"); setError != nil {
		testingHandle.Fatalf("Set error: %v", setError)
	}
	processor := &commands.Processor{Loader: config.NewLoader(""), Environment: environment, Mode: types.ModeCheck}
	document := "---\nslw-toml: \"max-width = 5\"\n---\none two three\n"
	outcome, formatError := processor.FormatDocument(context.Background(), document, testingHandle.TempDir())
	if formatError != nil {
		testingHandle.Fatalf("FormatDocument error: %v", formatError)
	}
	if outcome.Processed != document {
		testingHandle.Fatalf("expected unchanged document, got %q", outcome.Processed)
	}
}

func TestFormatDocumentRejectsInvalidEmbeddedConfiguration(testingHandle *testing.T) {
	document := "---\nslw-toml: |\n  colour = \"red\"\n---\ntext\n"
	_, formatError := newProcessor(types.ModeFormat, config.Settings{}).FormatDocument(context.Background(), document, testingHandle.TempDir())
	if !errors.Is(formatError, reflow.ErrInvalidConfiguration) {
		testingHandle.Fatalf("expected configuration error, got %v", formatError)
	}
}

func TestFormatDocumentRunsUpstreamFormatterOnBody(testingHandle *testing.T) {
	upstreamCommand := "sed s/one/ONE/"
	processor := newProcessor(types.ModeFormat, config.Settings{Upstream: &upstreamCommand})
	document := "---\ntitle: one\n---\none. two.\n"
	outcome, formatError := processor.FormatDocument(context.Background(), document, testingHandle.TempDir())
	if formatError != nil {
		testingHandle.Fatalf("FormatDocument error: %v", formatError)
	}
	expected := "---\ntitle: one\n---\nONE.\ntwo.\n"
	if difference := cmp.Diff(expected, outcome.Processed); difference != "" {
		testingHandle.Fatalf("unexpected output (-want +got):\n%s", difference)
	}
}

func TestProcessFileWritesOnlyInWritingModes(testingHandle *testing.T) {
	testCases := []struct {
		name            string
		mode            string
		expectedWritten bool
	}{
		{name: "format_mode", mode: types.ModeFormat, expectedWritten: true},
		{name: "both_mode", mode: types.ModeBoth, expectedWritten: true},
		{name: "check_mode", mode: types.ModeCheck, expectedWritten: false},
	}
	original := "One. Two.\n"
	formatted := "One.\nTwo.\n"
	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			documentPath := filepath.Join(testingHandle.TempDir(), "doc.md")
			writeFile(testingHandle, documentPath, original)
			result, processError := newProcessor(testCase.mode, config.Settings{}).ProcessFile(context.Background(), types.Document{Index: 3, Path: documentPath})
			if processError != nil {
				testingHandle.Fatalf("ProcessFile error: %v", processError)
			}
			if !result.Changed || result.Index != 3 || result.Processed != formatted || result.Original != original {
				testingHandle.Fatalf("unexpected result %+v", result)
			}
			if result.Written != testCase.expectedWritten {
				testingHandle.Fatalf("expected written %t, got %t", testCase.expectedWritten, result.Written)
			}
			content, readError := os.ReadFile(documentPath)
			if readError != nil {
				testingHandle.Fatalf("read back: %v", readError)
			}
			expectedContent := original
			if testCase.expectedWritten {
				expectedContent = formatted
			}
			if string(content) != expectedContent {
				testingHandle.Fatalf("expected file content %q, got %q", expectedContent, string(content))
			}
		})
	}
}

func TestProcessFileLeavesFileUntouchedOnFailure(testingHandle *testing.T) {
	documentPath := filepath.Join(testingHandle.TempDir(), "doc.md")
	original := "One. Two.\n"
	writeFile(testingHandle, documentPath, original)
	missingCommand := "slw-missing-upstream-formatter"
	processor := newProcessor(types.ModeFormat, config.Settings{UpstreamCommand: &missingCommand})
	if _, processError := processor.ProcessFile(context.Background(), types.Document{Path: documentPath}); processError == nil {
		testingHandle.Fatalf("expected upstream failure")
	}
	content, readError := os.ReadFile(documentPath)
	if readError != nil {
		testingHandle.Fatalf("read back: %v", readError)
	}
	if string(content) != original {
		testingHandle.Fatalf("file must stay untouched, got %q", string(content))
	}
}

func TestProcessFileReplacesDocumentPreservingPermissions(testingHandle *testing.T) {
	directory := testingHandle.TempDir()
	documentPath := filepath.Join(directory, "doc.md")
	writeFile(testingHandle, documentPath, "One. Two.\n")
	if chmodError := os.Chmod(documentPath, 0o640); chmodError != nil {
		testingHandle.Fatalf("chmod: %v", chmodError)
	}
	result, processError := newProcessor(types.ModeFormat, config.Settings{}).ProcessFile(context.Background(), types.Document{Path: documentPath})
	if processError != nil {
		testingHandle.Fatalf("ProcessFile error: %v", processError)
	}
	if !result.Written {
		testingHandle.Fatalf("expected the document to be written")
	}
	fileInfo, statError := os.Stat(documentPath)
	if statError != nil {
		testingHandle.Fatalf("stat: %v", statError)
	}
	if fileInfo.Mode().Perm() != 0o640 {
		testingHandle.Fatalf("expected permissions 0640, got %o", fileInfo.Mode().Perm())
	}
	entries, readDirError := os.ReadDir(directory)
	if readDirError != nil {
		testingHandle.Fatalf("read dir: %v", readDirError)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.md" {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		testingHandle.Fatalf("expected only doc.md in the directory, got %v", names)
	}
}
