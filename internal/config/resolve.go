package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/slw/internal/lang"
	"github.com/temirov/slw/internal/reflow"
	"github.com/temirov/slw/internal/upstream"
)

// Case sensitivity values for suppression words.
const (
	CaseIgnore = "ignore"
	CaseKeep   = "keep"

	defaultLanguages      = "ac"
	defaultLinkActions    = "none"
	defaultKeepWhitespace = "none"
	unknownCaseFormat     = "unknown case mode %q, expected %s or %s"
)

// Resolved is the configuration applying to one document.
type Resolved struct {
	Options     reflow.Options
	Upstream    upstream.Command
	UseUpstream bool
}

// Defaults returns settings holding every built-in default.
func Defaults() Settings {
	maxWidth := reflow.DefaultMaxWidth
	endMarkers := reflow.DefaultEndMarkers
	languages := defaultLanguages
	empty := ""
	caseMode := CaseIgnore
	linkActions := defaultLinkActions
	keepWhitespace := defaultKeepWhitespace
	formatBlockQuotes := false
	return Settings{
		MaxWidth:          &maxWidth,
		EndMarkers:        &endMarkers,
		Lang:              &languages,
		Suppressions:      cloneString(&empty),
		Ignores:           cloneString(&empty),
		UpstreamCommand:   cloneString(&empty),
		Upstream:          cloneString(&empty),
		UpstreamSeparator: cloneString(&empty),
		Case:              &caseMode,
		LinkActions:       &linkActions,
		KeepWhitespace:    &keepWhitespace,
		FormatBlockQuotes: &formatBlockQuotes,
		Features:          cloneString(&empty),
	}
}

// Resolve converts layered settings into engine options. Unset fields take their defaults.
func Resolve(settings Settings) (Resolved, error) {
	effective := Defaults().Merge(settings)

	caseSensitive := false
	switch strings.TrimSpace(*effective.Case) {
	case CaseIgnore:
	case CaseKeep:
		caseSensitive = true
	default:
		return Resolved{}, fmt.Errorf("%w: "+unknownCaseFormat, reflow.ErrInvalidConfiguration, *effective.Case, CaseIgnore, CaseKeep)
	}

	words, languageError := lang.Words(*effective.Lang)
	if languageError != nil {
		return Resolved{}, fmt.Errorf("%w: %w", reflow.ErrInvalidConfiguration, languageError)
	}
	words = append(words, strings.Fields(*effective.Suppressions)...)

	linkActions, linkError := reflow.ParseLinkActions(*effective.LinkActions)
	if linkError != nil {
		return Resolved{}, linkError
	}
	keepWhitespace, keepError := reflow.ParseKeepWhitespace(*effective.KeepWhitespace)
	if keepError != nil {
		return Resolved{}, keepError
	}
	features, featureWhitespace, featureError := reflow.ParseFeatures(*effective.Features)
	if featureError != nil {
		return Resolved{}, featureError
	}

	options := reflow.NewOptions()
	options.MaxWidth = *effective.MaxWidth
	options.EndMarkers = *effective.EndMarkers
	options.Suppressions = reflow.NewSuppressionSet(words, strings.Fields(*effective.Ignores), caseSensitive)
	options.LinkActions = linkActions
	options.KeepWhitespace = keepWhitespace | featureWhitespace
	options.FormatBlockQuotes = *effective.FormatBlockQuotes
	options.Features = features
	if validationError := options.Validate(); validationError != nil {
		return Resolved{}, validationError
	}

	command, configured := upstream.Parse(*effective.UpstreamCommand, *effective.Upstream, *effective.UpstreamSeparator)
	return Resolved{Options: options, Upstream: command, UseUpstream: configured}, nil
}

// DefaultTemplate renders the default configuration as TOML.
func DefaultTemplate() string {
	defaults := Defaults()
	var builder strings.Builder
	for _, key := range Keys() {
		builder.WriteString(key)
		builder.WriteString(" = ")
		builder.WriteString(defaults.tomlValue(key))
		builder.WriteString("\n")
	}
	return builder.String()
}

func (settings Settings) tomlValue(key string) string {
	switch key {
	case KeyMaxWidth:
		return strconv.Itoa(*settings.MaxWidth)
	case KeyFormatBlockQuotes:
		return strconv.FormatBool(*settings.FormatBlockQuotes)
	default:
		field := settings.stringField(key)
		return strconv.Quote(**field)
	}
}
