package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/slw/internal/utils"
)

// EnvironmentVariable names the variable overriding key, for example SLW_MAX_WIDTH.
func EnvironmentVariable(key string) string {
	return utils.EnvironmentPrefix + "_" + strings.ToUpper(environmentKeyReplacer().Replace(key))
}

// FromEnvironment collects settings from SLW_ prefixed environment variables.
// Empty variables are treated as unset.
func FromEnvironment() (Settings, error) {
	environmentReader := viper.New()
	environmentReader.SetEnvPrefix(utils.EnvironmentPrefix)
	environmentReader.SetEnvKeyReplacer(environmentKeyReplacer())
	environmentReader.AutomaticEnv()

	var settings Settings
	for _, key := range Keys() {
		if !environmentReader.IsSet(key) {
			continue
		}
		if setError := settings.Set(key, environmentReader.GetString(key)); setError != nil {
			return Settings{}, fmt.Errorf(settingsLocationFormat, EnvironmentVariable(key), setError)
		}
	}
	return settings, nil
}

func environmentKeyReplacer() *strings.Replacer {
	return strings.NewReplacer("-", "_")
}
