// Package config loads ignore files and the layered slw configuration.
package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/slw/internal/utils"
)

const (
	// gitDirectoryPattern represents the pattern that matches the Git directory.
	gitDirectoryPattern = utils.GitDirectoryName + "/"
	commentPrefix       = "#"
	negationPrefix      = "!"
)

// LoadIgnoreFilePatterns reads an ignore file and returns its patterns.
// A missing file yields no patterns. Negated patterns are not supported and skipped.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) || strings.HasPrefix(trimmedLine, negationPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, strings.TrimPrefix(trimmedLine, "/"))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// LoadRecursiveIgnorePatterns walks rootDirectoryPath and aggregates ignore patterns.
// Patterns from utils.IgnoreFileName and utils.GitIgnoreFileName in each nested directory
// are prefixed with that directory's path relative to rootDirectoryPath. Hidden directories
// are not searched. The provided exclusionPatterns are appended to the result.
func LoadRecursiveIgnorePatterns(rootDirectoryPath string, exclusionPatterns []string, useGitignore bool, useIgnoreFile bool) ([]string, error) {
	var aggregatedPatterns []string

	walkFunction := func(currentDirectoryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if currentDirectoryPath != rootDirectoryPath && utils.IsHidden(directoryEntry.Name()) {
			return filepath.SkipDir
		}

		relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, rootDirectoryPath)
		prefix := ""
		if relativeDirectory != "." {
			prefix = relativeDirectory + "/"
		}

		for _, ignoreFile := range selectedIgnoreFiles(useGitignore, useIgnoreFile) {
			ignoreFilePath := filepath.Join(currentDirectoryPath, ignoreFile)
			ignorePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
			if loadError != nil {
				return fmt.Errorf("loading %s from %s: %w", ignoreFile, currentDirectoryPath, loadError)
			}
			for _, pattern := range ignorePatterns {
				aggregatedPatterns = append(aggregatedPatterns, prefix+pattern)
			}
		}
		return nil
	}

	if walkError := filepath.WalkDir(rootDirectoryPath, walkFunction); walkError != nil {
		return nil, walkError
	}

	aggregatedPatterns = append(aggregatedPatterns, gitDirectoryPattern)
	for _, pattern := range exclusionPatterns {
		if trimmedPattern := strings.TrimSpace(pattern); trimmedPattern != "" {
			aggregatedPatterns = append(aggregatedPatterns, trimmedPattern)
		}
	}
	return utils.DeduplicatePatterns(aggregatedPatterns), nil
}

func selectedIgnoreFiles(useGitignore bool, useIgnoreFile bool) []string {
	var fileNames []string
	if useIgnoreFile {
		fileNames = append(fileNames, utils.IgnoreFileName)
	}
	if useGitignore {
		fileNames = append(fileNames, utils.GitIgnoreFileName)
	}
	return fileNames
}
