package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/temirov/slw/internal/utils"
)

// Loader resolves the configuration file cascade for documents. Results are
// cached per directory, so a Loader may be shared by concurrent workers.
type Loader struct {
	globalPath string
	mutex      sync.Mutex
	cache      map[string]Settings
}

// NewLoader constructs a Loader. An empty globalPath disables the global file.
func NewLoader(globalPath string) *Loader {
	return &Loader{globalPath: globalPath, cache: make(map[string]Settings)}
}

// GlobalConfigurationPath returns the location of the global configuration file.
func GlobalConfigurationPath() (string, error) {
	configurationRoot, rootError := os.UserConfigDir()
	if rootError != nil {
		return "", fmt.Errorf("resolve user configuration directory: %w", rootError)
	}
	return filepath.Join(configurationRoot, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName), nil
}

// ForDirectory returns the merged settings of every configuration file found
// in directoryPath and its ancestors. Nearer files take precedence.
func (loader *Loader) ForDirectory(directoryPath string) (Settings, error) {
	absoluteDirectory, absoluteError := filepath.Abs(directoryPath)
	if absoluteError != nil {
		return Settings{}, fmt.Errorf("resolve directory %s: %w", directoryPath, absoluteError)
	}
	loader.mutex.Lock()
	defer loader.mutex.Unlock()
	return loader.resolve(filepath.Clean(absoluteDirectory))
}

// ForFile returns the settings applying to the document at filePath.
func (loader *Loader) ForFile(filePath string) (Settings, error) {
	return loader.ForDirectory(filepath.Dir(filePath))
}

func (loader *Loader) resolve(directoryPath string) (Settings, error) {
	if cached, found := loader.cache[directoryPath]; found {
		return cached, nil
	}

	var inherited Settings
	parentDirectory := filepath.Dir(directoryPath)
	if parentDirectory == directoryPath {
		global, globalError := loadSettingsFile(loader.globalPath)
		if globalError != nil {
			return Settings{}, globalError
		}
		inherited = global
	} else {
		parentSettings, parentError := loader.resolve(parentDirectory)
		if parentError != nil {
			return Settings{}, parentError
		}
		inherited = parentSettings
	}

	local, localError := loadSettingsFile(filepath.Join(directoryPath, utils.ConfigFileName))
	if localError != nil {
		return Settings{}, localError
	}
	merged := inherited.Merge(local)
	loader.cache[directoryPath] = merged
	return merged, nil
}

// loadSettingsFile reads one configuration file. Missing files yield empty settings.
//
// #nosec G304
func loadSettingsFile(configurationPath string) (Settings, error) {
	if configurationPath == "" {
		return Settings{}, nil
	}
	content, readError := os.ReadFile(configurationPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read configuration %s: %w", configurationPath, readError)
	}
	settings, parseError := ParseSettings(string(content))
	if parseError != nil {
		return Settings{}, fmt.Errorf(settingsLocationFormat, configurationPath, parseError)
	}
	return settings, nil
}
