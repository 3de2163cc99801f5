// Package commands discovers Markdown documents and formats them one at a time.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/temirov/slw/internal/config"
	"github.com/temirov/slw/internal/types"
	"github.com/temirov/slw/internal/utils"
)

const (
	// WarningAccessPathFormat reports a path that could not be inspected during discovery.
	WarningAccessPathFormat = "skipping %s: %v"

	errorAbsolutePathFormat = "abs failed for '%s': %w"
	errorPathMissingFormat  = "path '%s' does not exist"
	errorStatFormat         = "stat failed for '%s': %w"
)

// DiscoveryOptions configures document discovery.
type DiscoveryOptions struct {
	Extension         string
	ExclusionPatterns []string
	UseGitignore      bool
	UseIgnoreFile     bool
	Warn              func(message string)
}

// ResolveAndValidatePaths converts input paths to absolute form and validates their existence.
// Duplicate inputs are dropped while argument order is preserved.
func ResolveAndValidatePaths(inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := os.Stat(cleanPath)
		if fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath, IsDir: info.IsDir()})
	}
	return result, nil
}

// DiscoverDocuments expands the validated inputs into documents. Files are taken as given.
// Directories are walked recursively and their matching files are ordered naturally.
func DiscoverDocuments(inputs []types.ValidatedPath, options DiscoveryOptions) ([]types.Document, error) {
	extension := options.Extension
	if extension == "" {
		extension = types.DefaultExtension
	}
	seen := make(map[string]struct{})
	var documents []types.Document
	appendDocument := func(documentPath string) {
		if _, duplicate := seen[documentPath]; duplicate {
			return
		}
		seen[documentPath] = struct{}{}
		documents = append(documents, types.Document{Index: len(documents), Path: documentPath})
	}

	for _, input := range inputs {
		if !input.IsDir {
			appendDocument(input.AbsolutePath)
			continue
		}
		ignorePatterns, loadError := config.LoadRecursiveIgnorePatterns(input.AbsolutePath, options.ExclusionPatterns, options.UseGitignore, options.UseIgnoreFile)
		if loadError != nil {
			return nil, loadError
		}
		found, walkError := walkDocuments(input.AbsolutePath, extension, ignorePatterns, options.Warn)
		if walkError != nil {
			return nil, walkError
		}
		for _, documentPath := range found {
			appendDocument(documentPath)
		}
	}
	return documents, nil
}

func walkDocuments(rootPath string, extension string, ignorePatterns []string, warn func(string)) ([]string, error) {
	var found []string
	walkError := filepath.WalkDir(rootPath, func(walkedPath string, directoryEntry os.DirEntry, accessError error) error {
		if accessError != nil {
			if warn != nil {
				warn(fmt.Sprintf(WarningAccessPathFormat, walkedPath, accessError))
			}
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relativePath := utils.RelativePathOrSelf(walkedPath, rootPath)
		if relativePath == "." {
			return nil
		}
		if utils.IsHidden(directoryEntry.Name()) || utils.ShouldIgnoreByPath(relativePath, ignorePatterns) {
			if directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if directoryEntry.IsDir() || !strings.HasSuffix(directoryEntry.Name(), extension) {
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		found = append(found, walkedPath)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}
	sort.Sort(natural.StringSlice(found))
	return found, nil
}
