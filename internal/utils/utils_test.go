package utils_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/slw/internal/utils"
)

func TestDeduplicatePatterns(testingHandle *testing.T) {
	testingHandle.Parallel()
	testCases := []struct {
		name     string
		patterns []string
		expected []string
	}{
		{name: "removes_duplicates", patterns: []string{"a", "b", "a"}, expected: []string{"a", "b"}},
		{name: "keeps_unique", patterns: []string{"a", "b"}, expected: []string{"a", "b"}},
		{name: "empty", patterns: nil, expected: []string{}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			testingHandle.Parallel()
			if difference := cmp.Diff(testCase.expected, utils.DeduplicatePatterns(testCase.patterns)); difference != "" {
				testingHandle.Fatalf("unexpected patterns (-want +got):\n%s", difference)
			}
		})
	}
}

func TestIsHidden(testingHandle *testing.T) {
	testingHandle.Parallel()
	testCases := []struct {
		name     string
		entry    string
		expected bool
	}{
		{name: "dot_file", entry: ".slw.toml", expected: true},
		{name: "dot_directory", entry: ".git", expected: true},
		{name: "current_directory", entry: ".", expected: false},
		{name: "parent_directory", entry: "..", expected: false},
		{name: "regular", entry: "README.md", expected: false},
	}
	for _, testCase := range testCases {
		if actual := utils.IsHidden(testCase.entry); actual != testCase.expected {
			testingHandle.Fatalf("%s: expected %t, got %t", testCase.name, testCase.expected, actual)
		}
	}
}

func TestRelativePathOrSelf(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedPath := filepath.Join(rootDirectory, "docs", "guide.md")
	if relative := utils.RelativePathOrSelf(nestedPath, rootDirectory); relative != "docs/guide.md" {
		testingHandle.Fatalf("expected docs/guide.md, got %s", relative)
	}
	if relative := utils.RelativePathOrSelf(rootDirectory, rootDirectory); relative != "." {
		testingHandle.Fatalf("expected ., got %s", relative)
	}
}

func TestShouldIgnoreByPath(testingHandle *testing.T) {
	testingHandle.Parallel()
	testCases := []struct {
		name     string
		path     string
		patterns []string
		expected bool
	}{
		{name: "directory_pattern_matches_descendant", path: "vendor/lib/README.md", patterns: []string{"vendor/"}, expected: true},
		{name: "directory_pattern_matches_nested_directory", path: "docs/node_modules/pkg/README.md", patterns: []string{"node_modules/"}, expected: true},
		{name: "nested_directory_pattern", path: "subdir/node_modules/index.md", patterns: []string{"subdir/node_modules/"}, expected: true},
		{name: "nested_directory_pattern_other_root", path: "other/subdir/node_modules/index.md", patterns: []string{"subdir/node_modules/"}, expected: false},
		{name: "backslash_pattern", path: "subdir/node_modules/index.md", patterns: []string{`subdir\node_modules\`}, expected: true},
		{name: "wildcard_matches_last_segment", path: "docs/CHANGELOG.md", patterns: []string{"CHANGE*.md"}, expected: true},
		{name: "exact_nested_path", path: "docs/draft.md", patterns: []string{"docs/draft.md"}, expected: true},
		{name: "exact_nested_path_mismatch", path: "notes/draft.md", patterns: []string{"docs/draft.md"}, expected: false},
		{name: "no_patterns", path: "README.md", patterns: nil, expected: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			testingHandle.Parallel()
			if actual := utils.ShouldIgnoreByPath(testCase.path, testCase.patterns); actual != testCase.expected {
				testingHandle.Fatalf("expected %t, got %t", testCase.expected, actual)
			}
		})
	}
}

func TestLevelForVerbosity(testingHandle *testing.T) {
	testingHandle.Parallel()
	expectations := map[int]zapcore.Level{0: zapcore.WarnLevel, 1: zapcore.InfoLevel, 2: zapcore.DebugLevel, 5: zapcore.DebugLevel}
	for verbosity, expected := range expectations {
		if actual := utils.LevelForVerbosity(verbosity); actual != expected {
			testingHandle.Fatalf("verbosity %d: expected %s, got %s", verbosity, expected, actual)
		}
	}
}

func TestGetApplicationVersionPrefersLinkedVersion(testingHandle *testing.T) {
	previous := utils.Version
	utils.Version = "v9.9.9"
	testingHandle.Cleanup(func() { utils.Version = previous })
	if actual := utils.GetApplicationVersion(); actual != "v9.9.9" {
		testingHandle.Fatalf("expected linked version, got %s", actual)
	}
}
