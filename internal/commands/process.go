package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/slw/internal/config"
	"github.com/temirov/slw/internal/frontmatter"
	"github.com/temirov/slw/internal/reflow"
	"github.com/temirov/slw/internal/types"
)

const (
	frontMatterConfigurationFormat = "front matter %s: %w"
	invalidFrontMatterFormat       = "front matter is not valid YAML, embedded configuration ignored: %v"
	readDocumentFormat             = "read %s: %w"
	writeDocumentFormat            = "write %s: %w"
	upstreamFailureFormat          = "run upstream formatter in %s: %w"
	temporaryFilePattern           = ".*.tmp"
)

// Processor formats documents with the configuration cascade that applies to each of them.
// Loader is required; a Processor may be shared by concurrent workers.
type Processor struct {
	Loader      *config.Loader
	Environment config.Settings
	Flags       config.Settings
	Mode        string
	Logger      *zap.Logger
}

// Outcome is a formatted document with the problems recovered on the way.
type Outcome struct {
	Processed string
	Warnings  []string
}

// FormatDocument formats document as if it were located in directory. Configuration
// precedence is flags, environment, front matter, then configuration files.
func (processor *Processor) FormatDocument(ctx context.Context, document string, directory string) (Outcome, error) {
	var warnings []string
	fileSettings, loadError := processor.Loader.ForDirectory(directory)
	if loadError != nil {
		return Outcome{}, loadError
	}

	matter, body := frontmatter.Split(document)
	var matterSettings config.Settings
	embedded, embeddedError := frontmatter.ConfigValue(matter)
	if embeddedError != nil {
		warnings = append(warnings, fmt.Sprintf(invalidFrontMatterFormat, embeddedError))
	} else if embedded != "" {
		parsed, parseError := config.ParseSettings(embedded)
		if parseError != nil {
			return Outcome{}, fmt.Errorf(frontMatterConfigurationFormat, frontmatter.ConfigurationKey, parseError)
		}
		matterSettings = parsed
	}

	resolved, resolveError := config.Resolve(config.Layer(fileSettings, matterSettings, processor.Environment, processor.Flags))
	if resolveError != nil {
		return Outcome{}, resolveError
	}

	if resolved.UseUpstream {
		processor.logger().Debug("calling upstream formatter", zap.String("command", resolved.Upstream.String()), zap.String("directory", directory))
		formattedBody, upstreamError := resolved.Upstream.Run(ctx, directory, body)
		if upstreamError != nil {
			return Outcome{}, fmt.Errorf(upstreamFailureFormat, directory, upstreamError)
		}
		body = formattedBody
	}

	result, formatError := reflow.Format(matter+body, resolved.Options)
	if formatError != nil {
		return Outcome{}, formatError
	}
	for _, warning := range result.Warnings {
		warnings = append(warnings, warning.String())
	}
	processed := result.Text
	if document != "" && document[len(document)-1] == '\n' && (processed == "" || processed[len(processed)-1] != '\n') {
		processed += "\n"
	}
	return Outcome{Processed: processed, Warnings: warnings}, nil
}

// ProcessFile formats one document on disk. In writing modes a changed document is
// replaced only after the whole pipeline succeeded.
//
// #nosec G304
func (processor *Processor) ProcessFile(ctx context.Context, document types.Document) (types.FileResult, error) {
	fileInfo, statError := os.Stat(document.Path)
	if statError != nil {
		return types.FileResult{}, fmt.Errorf(readDocumentFormat, document.Path, statError)
	}
	content, readError := os.ReadFile(document.Path)
	if readError != nil {
		return types.FileResult{}, fmt.Errorf(readDocumentFormat, document.Path, readError)
	}
	original := string(content)

	outcome, formatError := processor.FormatDocument(ctx, original, filepath.Dir(document.Path))
	if formatError != nil {
		return types.FileResult{}, fmt.Errorf("%s: %w", document.Path, formatError)
	}

	result := types.FileResult{
		Index:     document.Index,
		Path:      document.Path,
		Original:  original,
		Processed: outcome.Processed,
		Changed:   outcome.Processed != original,
		Warnings:  outcome.Warnings,
	}
	if result.Changed && types.WritesFiles(processor.Mode) {
		if writeError := replaceFile(document.Path, outcome.Processed, fileInfo.Mode().Perm()); writeError != nil {
			return types.FileResult{}, fmt.Errorf(writeDocumentFormat, document.Path, writeError)
		}
		result.Written = true
	}
	return result, nil
}

// replaceFile writes content to a temporary file next to path and renames it over
// path, so readers see either the old or the new document.
func replaceFile(path string, content string, permissions os.FileMode) (err error) {
	temporary, createError := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+temporaryFilePattern)
	if createError != nil {
		return createError
	}
	temporaryPath := temporary.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(temporaryPath)
		}
	}()
	if _, writeError := temporary.WriteString(content); writeError != nil {
		_ = temporary.Close()
		return writeError
	}
	if syncError := temporary.Sync(); syncError != nil {
		_ = temporary.Close()
		return syncError
	}
	if closeError := temporary.Close(); closeError != nil {
		return closeError
	}
	if chmodError := os.Chmod(temporaryPath, permissions); chmodError != nil {
		return chmodError
	}
	return os.Rename(temporaryPath, path)
}

func (processor *Processor) logger() *zap.Logger {
	if processor.Logger == nil {
		return zap.NewNop()
	}
	return processor.Logger
}
