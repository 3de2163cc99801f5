package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/slw/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes .slw.toml into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes config.toml into the user configuration directory.
	InitTargetGlobal InitTarget = "global"

	configurationFileMode      = 0o600
	configurationDirectoryMode = 0o755
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes DefaultTemplate to the requested target and returns its path.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, destinationError := initDestination(options)
	if destinationError != nil {
		return "", destinationError
	}
	_, statError := os.Stat(destinationPath)
	switch {
	case statError == nil && !options.Force:
		return "", fmt.Errorf("configuration file already exists at %s, use --force to overwrite", destinationPath)
	case statError != nil && !errors.Is(statError, fs.ErrNotExist):
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statError)
	}
	if mkdirError := os.MkdirAll(filepath.Dir(destinationPath), configurationDirectoryMode); mkdirError != nil {
		return "", fmt.Errorf("create configuration directory %s: %w", filepath.Dir(destinationPath), mkdirError)
	}
	if writeError := os.WriteFile(destinationPath, []byte(DefaultTemplate()), configurationFileMode); writeError != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeError)
	}
	return destinationPath, nil
}

func initDestination(options InitOptions) (string, error) {
	switch options.Target {
	case InitTargetLocal, "":
		if options.WorkingDirectory != "" {
			return filepath.Join(options.WorkingDirectory, utils.ConfigFileName), nil
		}
		workingDirectory, getwdError := os.Getwd()
		if getwdError != nil {
			return "", fmt.Errorf("determine working directory for configuration: %w", getwdError)
		}
		return filepath.Join(workingDirectory, utils.ConfigFileName), nil
	case InitTargetGlobal:
		return GlobalConfigurationPath()
	default:
		return "", fmt.Errorf("unsupported init target %q", options.Target)
	}
}
