// Package utils contains path, naming and logging helpers shared by the slw packages.
package utils

import (
	"path/filepath"
	"strings"
)

// Ignore file constants used across the project.
const (
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

const (
	pathSegmentSeparator = "/"
	hiddenPrefix         = "."
	currentDirectory     = "."
	parentDirectory      = ".."
)

// DeduplicatePatterns returns patterns without repetitions, keeping first occurrences in order.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	unique := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if seen[pattern] {
			continue
		}
		seen[pattern] = true
		unique = append(unique, pattern)
	}
	return unique
}

// IsHidden reports whether a file or directory name starts with a dot.
// The names "." and ".." are not hidden.
func IsHidden(entryName string) bool {
	return entryName != currentDirectory && entryName != parentDirectory && strings.HasPrefix(entryName, hiddenPrefix)
}

// RelativePathOrSelf returns fullPath relative to root in slash form, "." when both name
// the same directory, and the cleaned fullPath when no relative form exists.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absolutePath, pathError := filepath.Abs(cleanPath)
	absoluteRoot, rootError := filepath.Abs(root)
	if pathError != nil || rootError != nil {
		return cleanPath
	}
	relativePath, relativeError := filepath.Rel(absoluteRoot, absolutePath)
	if relativeError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// ShouldIgnoreByPath reports whether a slash- or backslash-separated path relative to
// the discovery root matches one of ignorePatterns.
//
// A pattern with a trailing slash names a directory: a single segment matches a
// directory of that name at any depth, longer patterns match a path prefix. Other
// single-segment patterns match the base name. Remaining patterns match the whole
// path segment by segment with filepath.Match semantics.
func ShouldIgnoreByPath(relativePath string, ignorePatterns []string) bool {
	pathSegments := splitSegments(relativePath)
	for _, pattern := range ignorePatterns {
		if matchesIgnorePattern(pathSegments, pattern) {
			return true
		}
	}
	return false
}

func matchesIgnorePattern(pathSegments []string, pattern string) bool {
	normalizedPattern := strings.ReplaceAll(pattern, "\\", pathSegmentSeparator)
	directoryOnly := strings.HasSuffix(normalizedPattern, pathSegmentSeparator)
	trimmedPattern := strings.TrimSuffix(normalizedPattern, pathSegmentSeparator)
	if trimmedPattern == "" {
		return false
	}
	patternSegments := strings.Split(trimmedPattern, pathSegmentSeparator)

	switch {
	case directoryOnly && len(patternSegments) == 1:
		for _, pathSegment := range pathSegments {
			if segmentsMatch([]string{pathSegment}, patternSegments) {
				return true
			}
		}
		return false
	case directoryOnly:
		return len(pathSegments) >= len(patternSegments) && segmentsMatch(pathSegments[:len(patternSegments)], patternSegments)
	case len(patternSegments) == 1:
		return segmentsMatch(pathSegments[len(pathSegments)-1:], patternSegments)
	default:
		return len(pathSegments) == len(patternSegments) && segmentsMatch(pathSegments, patternSegments)
	}
}

func splitSegments(path string) []string {
	return strings.Split(strings.ReplaceAll(path, "\\", pathSegmentSeparator), pathSegmentSeparator)
}

// segmentsMatch reports whether each pattern segment matches the path segment at the same index.
func segmentsMatch(pathSegments, patternSegments []string) bool {
	for segmentIndex, patternSegment := range patternSegments {
		matched, matchError := filepath.Match(patternSegment, pathSegments[segmentIndex])
		if matchError != nil || !matched {
			return false
		}
	}
	return true
}
