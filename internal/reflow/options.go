package reflow

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultMaxWidth is the line width used when none is configured.
	DefaultMaxWidth = 80
	// DefaultEndMarkers lists the characters that may end a sentence.
	DefaultEndMarkers = "?!:."

	optionValueNone            = "none"
	optionValueBoth            = "both"
	optionValueOutsourceInline = "outsource-inline"
	optionValueCollateDefs     = "collate-defs"
	optionValueInLinks         = "in-links"
	optionValueLinebreaks      = "linebreaks"

	unknownValueFormat = "unknown %s %q"
)

// LinkActions selects the link rewrites applied to a document.
type LinkActions uint8

const (
	// OutsourceInlineLinks converts inline links into reference links.
	OutsourceInlineLinks LinkActions = 1 << iota
	// CollateDefinitions gathers link definitions at the end of the document.
	CollateDefinitions
)

// Has reports whether every bit of action is enabled.
func (actions LinkActions) Has(action LinkActions) bool {
	return actions&action == action
}

// ParseLinkActions converts none, outsource-inline, collate-defs or both.
func ParseLinkActions(value string) (LinkActions, error) {
	switch strings.TrimSpace(value) {
	case optionValueNone, "":
		return 0, nil
	case optionValueOutsourceInline:
		return OutsourceInlineLinks, nil
	case optionValueCollateDefs:
		return CollateDefinitions, nil
	case optionValueBoth:
		return OutsourceInlineLinks | CollateDefinitions, nil
	default:
		return 0, newConfigurationError(fmt.Sprintf(unknownValueFormat, "link action", value))
	}
}

// KeepWhitespace selects whitespace that survives normalization.
type KeepWhitespace uint8

const (
	// KeepInLinks keeps ordinary spaces inside link texts.
	KeepInLinks KeepWhitespace = 1 << iota
	// KeepLinebreaks keeps existing line breaks inside paragraphs.
	KeepLinebreaks
)

// Has reports whether every bit of kind is enabled.
func (keep KeepWhitespace) Has(kind KeepWhitespace) bool {
	return keep&kind == kind
}

// ParseKeepWhitespace converts none, in-links, linebreaks or both.
func ParseKeepWhitespace(value string) (KeepWhitespace, error) {
	switch strings.TrimSpace(value) {
	case optionValueNone, "":
		return 0, nil
	case optionValueInLinks:
		return KeepInLinks, nil
	case optionValueLinebreaks:
		return KeepLinebreaks, nil
	case optionValueBoth:
		return KeepInLinks | KeepLinebreaks, nil
	default:
		return 0, newConfigurationError(fmt.Sprintf(unknownValueFormat, "keep-whitespace value", value))
	}
}

// Features toggles optional behaviour of the classifier and the splitter.
type Features uint8

const (
	// FeatureFormatFootnotes makes footnote definitions formattable.
	FeatureFormatFootnotes Features = 1 << iota
	// FeatureBreakMultipleMarkers ends sentences after runs such as "?!".
	FeatureBreakMultipleMarkers
	// FeatureBreakStartMarker ends sentences after a lone marker at line start.
	FeatureBreakStartMarker
	// FeatureModifyNbsp treats non-breaking spaces as ordinary whitespace.
	FeatureModifyNbsp
)

var featureNames = map[string]Features{
	"format-footnotes":          FeatureFormatFootnotes,
	"breaking-multiple-markers": FeatureBreakMultipleMarkers,
	"breaking-start-marker":     FeatureBreakStartMarker,
	"modify-nbsp":               FeatureModifyNbsp,
}

// Has reports whether every bit of feature is enabled.
func (features Features) Has(feature Features) bool {
	return features&feature == feature
}

// Feature names that earlier configuration files may still carry. The first two
// map onto keep-whitespace values, the others name behaviour that is always on.
var (
	whitespaceFeatureNames = map[string]KeepWhitespace{
		"keep-spaces-in-links": KeepInLinks,
		"keep-newlines":        KeepLinebreaks,
	}
	inertFeatureNames = map[string]bool{
		"keep-inline-html": true,
		"keep-footnotes":   true,
		"modify-tasklists": true,
		"modify-tables":    true,
	}
)

// ParseFeatures converts a comma- or space-separated list of feature names. The
// returned KeepWhitespace holds the whitespace kept by legacy feature names.
func ParseFeatures(value string) (Features, KeepWhitespace, error) {
	var features Features
	var keep KeepWhitespace
	names := strings.FieldsFunc(value, func(character rune) bool {
		return character == ',' || unicode.IsSpace(character)
	})
	for _, name := range names {
		if feature, known := featureNames[name]; known {
			features |= feature
			continue
		}
		if kept, known := whitespaceFeatureNames[name]; known {
			keep |= kept
			continue
		}
		if !inertFeatureNames[name] {
			return 0, 0, newConfigurationError(fmt.Sprintf(unknownValueFormat, "feature", name))
		}
	}
	return features, keep, nil
}

// IgnoreMarkers names the comment texts delimiting a range left untouched.
type IgnoreMarkers struct {
	Start string
	End   string
}

// DefaultIgnoreMarkers returns the supported ignore vocabularies.
func DefaultIgnoreMarkers() []IgnoreMarkers {
	return []IgnoreMarkers{
		{Start: "slw-ignore-start", End: "slw-ignore-end"},
		{Start: "prettier-ignore-start", End: "prettier-ignore-end"},
	}
}

// Options is the fully resolved configuration of a single Format call.
type Options struct {
	MaxWidth          int
	EndMarkers        string
	Suppressions      *SuppressionSet
	LinkActions       LinkActions
	KeepWhitespace    KeepWhitespace
	FormatBlockQuotes bool
	Features          Features
	IgnoreMarkers     []IgnoreMarkers
}

// NewOptions returns options holding the default values and no suppression words.
func NewOptions() Options {
	return Options{
		MaxWidth:      DefaultMaxWidth,
		EndMarkers:    DefaultEndMarkers,
		Suppressions:  NewSuppressionSet(nil, nil, false),
		IgnoreMarkers: DefaultIgnoreMarkers(),
	}
}

// Validate reports configuration problems that must prevent formatting.
func (options Options) Validate() error {
	if options.MaxWidth < 0 {
		return newConfigurationError(fmt.Sprintf("max width must not be negative, got %d", options.MaxWidth))
	}
	if options.EndMarkers == "" {
		return newConfigurationError("end markers must not be empty")
	}
	for _, marker := range options.EndMarkers {
		if unicode.IsSpace(marker) || unicode.IsLetter(marker) || unicode.IsDigit(marker) {
			return newConfigurationError(fmt.Sprintf("end marker %q must be punctuation", marker))
		}
	}
	for _, markers := range options.IgnoreMarkers {
		if strings.TrimSpace(markers.Start) == "" || strings.TrimSpace(markers.End) == "" {
			return newConfigurationError("ignore markers must not be empty")
		}
	}
	return nil
}
