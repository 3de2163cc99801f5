package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/slw/internal/reflow"
)

// Configuration keys shared by configuration files, front matter, environment variables and flags.
const (
	KeyMaxWidth          = "max-width"
	KeyEndMarkers        = "end-markers"
	KeyLang              = "lang"
	KeySuppressions      = "suppressions"
	KeyIgnores           = "ignores"
	KeyUpstreamCommand   = "upstream-command"
	KeyUpstream          = "upstream"
	KeyUpstreamSeparator = "upstream-separator"
	KeyCase              = "case"
	KeyLinkActions       = "link-actions"
	KeyKeepWhitespace    = "keep-whitespace"
	KeyFormatBlockQuotes = "format-block-quotes"
	KeyFeatures          = "features"

	configurationType = "toml"

	unknownKeyFormat       = "unknown configuration key %q"
	invalidIntegerFormat   = "invalid integer %q for %s: %w"
	invalidBooleanFormat   = "invalid boolean %q for %s"
	decodeSettingsFormat   = "decode configuration: %w"
	parseSettingsFormat    = "parse configuration: %w"
	settingsLocationFormat = "%s: %w"
)

// Keys lists every per-file configuration key in documentation order.
func Keys() []string {
	return []string{
		KeyMaxWidth,
		KeyEndMarkers,
		KeyLang,
		KeySuppressions,
		KeyIgnores,
		KeyUpstreamCommand,
		KeyUpstream,
		KeyUpstreamSeparator,
		KeyCase,
		KeyLinkActions,
		KeyKeepWhitespace,
		KeyFormatBlockQuotes,
		KeyFeatures,
	}
}

// Settings holds per-file configuration values. A nil field is unset and
// falls through to the next configuration layer.
type Settings struct {
	MaxWidth          *int    `mapstructure:"max-width"`
	EndMarkers        *string `mapstructure:"end-markers"`
	Lang              *string `mapstructure:"lang"`
	Suppressions      *string `mapstructure:"suppressions"`
	Ignores           *string `mapstructure:"ignores"`
	UpstreamCommand   *string `mapstructure:"upstream-command"`
	Upstream          *string `mapstructure:"upstream"`
	UpstreamSeparator *string `mapstructure:"upstream-separator"`
	Case              *string `mapstructure:"case"`
	LinkActions       *string `mapstructure:"link-actions"`
	KeepWhitespace    *string `mapstructure:"keep-whitespace"`
	FormatBlockQuotes *bool   `mapstructure:"format-block-quotes"`
	Features          *string `mapstructure:"features"`
}

// ParseSettings decodes TOML text. Unknown keys are rejected.
func ParseSettings(tomlText string) (Settings, error) {
	configurationReader := viper.New()
	configurationReader.SetConfigType(configurationType)
	if readError := configurationReader.ReadConfig(strings.NewReader(tomlText)); readError != nil {
		return Settings{}, fmt.Errorf("%w: "+parseSettingsFormat, reflow.ErrInvalidConfiguration, readError)
	}
	var settings Settings
	if decodeError := configurationReader.UnmarshalExact(&settings); decodeError != nil {
		return Settings{}, fmt.Errorf("%w: "+decodeSettingsFormat, reflow.ErrInvalidConfiguration, decodeError)
	}
	return settings, nil
}

// Merge returns a copy of the receiver where every field set in override wins.
func (settings Settings) Merge(override Settings) Settings {
	merged := settings
	merged.MaxWidth = pickInt(override.MaxWidth, settings.MaxWidth)
	merged.EndMarkers = pickString(override.EndMarkers, settings.EndMarkers)
	merged.Lang = pickString(override.Lang, settings.Lang)
	merged.Suppressions = pickString(override.Suppressions, settings.Suppressions)
	merged.Ignores = pickString(override.Ignores, settings.Ignores)
	merged.UpstreamCommand = pickString(override.UpstreamCommand, settings.UpstreamCommand)
	merged.Upstream = pickString(override.Upstream, settings.Upstream)
	merged.UpstreamSeparator = pickString(override.UpstreamSeparator, settings.UpstreamSeparator)
	merged.Case = pickString(override.Case, settings.Case)
	merged.LinkActions = pickString(override.LinkActions, settings.LinkActions)
	merged.KeepWhitespace = pickString(override.KeepWhitespace, settings.KeepWhitespace)
	merged.FormatBlockQuotes = pickBool(override.FormatBlockQuotes, settings.FormatBlockQuotes)
	merged.Features = pickString(override.Features, settings.Features)
	return merged
}

// Layer merges settings from the lowest to the highest precedence.
func Layer(layers ...Settings) Settings {
	var merged Settings
	for _, layer := range layers {
		merged = merged.Merge(layer)
	}
	return merged
}

// Set assigns a textual value to the field named by key.
func (settings *Settings) Set(key string, value string) error {
	switch key {
	case KeyMaxWidth:
		width, parseError := strconv.Atoi(strings.TrimSpace(value))
		if parseError != nil {
			return fmt.Errorf("%w: "+invalidIntegerFormat, reflow.ErrInvalidConfiguration, value, key, parseError)
		}
		settings.MaxWidth = &width
	case KeyFormatBlockQuotes:
		enabled, parsed := ParseLenientBool(value)
		if !parsed {
			return fmt.Errorf("%w: "+invalidBooleanFormat, reflow.ErrInvalidConfiguration, value, key)
		}
		settings.FormatBlockQuotes = &enabled
	default:
		field := settings.stringField(key)
		if field == nil {
			return fmt.Errorf("%w: "+unknownKeyFormat, reflow.ErrInvalidConfiguration, key)
		}
		*field = cloneString(&value)
	}
	return nil
}

func (settings *Settings) stringField(key string) **string {
	switch key {
	case KeyEndMarkers:
		return &settings.EndMarkers
	case KeyLang:
		return &settings.Lang
	case KeySuppressions:
		return &settings.Suppressions
	case KeyIgnores:
		return &settings.Ignores
	case KeyUpstreamCommand:
		return &settings.UpstreamCommand
	case KeyUpstream:
		return &settings.Upstream
	case KeyUpstreamSeparator:
		return &settings.UpstreamSeparator
	case KeyCase:
		return &settings.Case
	case KeyLinkActions:
		return &settings.LinkActions
	case KeyKeepWhitespace:
		return &settings.KeepWhitespace
	case KeyFeatures:
		return &settings.Features
	default:
		return nil
	}
}

// ParseLenientBool accepts the usual spellings of true and false.
func ParseLenientBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "on", "1", "t":
		return true, true
	case "false", "no", "n", "off", "0", "f":
		return false, true
	default:
		return false, false
	}
}

func pickInt(preferred *int, fallback *int) *int {
	if preferred != nil {
		return cloneInt(preferred)
	}
	return cloneInt(fallback)
}

func pickString(preferred *string, fallback *string) *string {
	if preferred != nil {
		return cloneString(preferred)
	}
	return cloneString(fallback)
}

func pickBool(preferred *bool, fallback *bool) *bool {
	if preferred != nil {
		return cloneBool(preferred)
	}
	return cloneBool(fallback)
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
