package output

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	diffContextLines    = 4
	originalNamePrefix  = "original:"
	processedNamePrefix = "processed:"
)

// UnifiedDiff renders the changes between original and processed. Unchanged
// documents produce an empty string.
func UnifiedDiff(original string, processed string, path string) (string, error) {
	if original == processed {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        diffLines(original),
		B:        diffLines(processed),
		FromFile: originalNamePrefix + path,
		ToFile:   processedNamePrefix + path,
		Context:  diffContextLines,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// diffLines splits text for the differ. SplitLines adds an empty line after a
// final newline, which would show up as a blank context line.
func diffLines(text string) []string {
	lines := difflib.SplitLines(text)
	if strings.HasSuffix(text, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}
