// Package reflow reformats Markdown documents so that every sentence starts on
// its own line and long sentences are wrapped to a maximum width. Markup that
// is not prose is returned byte for byte.
package reflow

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	quotePrefix      = "> "
	emptyQuotePrefix = ">"
	quoteMarkerWidth = 2
	crlfSeparator    = "\r\n"
)

// Result is the outcome of formatting a document.
type Result struct {
	Text     string
	Changed  bool
	Warnings []Warning
}

type formatState struct {
	registry *linkRegistry
	warnings []Warning
}

type engine struct {
	options    Options
	normalizer normalizer
	splitter   sentenceSplitter
	wrapper    lineWrapper
	state      *formatState
	lineOffset int
}

func newEngine(options Options, state *formatState) *engine {
	return &engine{
		options:    options,
		normalizer: newNormalizer(options),
		splitter:   newSentenceSplitter(options),
		wrapper:    lineWrapper{maxWidth: options.MaxWidth},
		state:      state,
	}
}

// Format reflows document. It fails only for unusable options or invalid UTF-8;
// malformed markup is recovered and reported through Result.Warnings.
func Format(document string, options Options) (Result, error) {
	if validationError := options.Validate(); validationError != nil {
		return Result{}, validationError
	}
	if !utf8.ValidString(document) {
		return Result{}, fmt.Errorf(encodingErrorFormat, ErrInvalidEncoding, invalidOffset(document))
	}
	body, crlf := normalizeLineEndings(document)
	state := &formatState{registry: newLinkRegistry(body, options)}
	formatted := matchTrailingLineBreak(newEngine(options, state).formatBody(body), body)
	if crlf {
		formatted = strings.ReplaceAll(formatted, lineSeparator, crlfSeparator)
	}
	return Result{Text: formatted, Changed: formatted != document, Warnings: state.warnings}, nil
}

// normalizeLineEndings converts a document whose every line ends with CRLF to
// LF line endings. Documents with mixed or LF endings are returned as they are.
func normalizeLineEndings(document string) (string, bool) {
	crlfCount := strings.Count(document, crlfSeparator)
	if crlfCount == 0 || crlfCount != strings.Count(document, lineSeparator) {
		return document, false
	}
	return strings.ReplaceAll(document, crlfSeparator, lineSeparator), true
}

func invalidOffset(document string) int {
	for offset, character := range document {
		if character == utf8.RuneError {
			if _, width := utf8.DecodeRuneInString(document[offset:]); width == 1 {
				return offset
			}
		}
	}
	return len(document)
}

// matchTrailingLineBreak makes formatted end with a line break exactly when
// original does.
func matchTrailingLineBreak(formatted string, original string) string {
	originalHasBreak := strings.HasSuffix(original, lineSeparator)
	formattedHasBreak := strings.HasSuffix(formatted, lineSeparator)
	switch {
	case originalHasBreak && !formattedHasBreak:
		return formatted + lineSeparator
	case !originalHasBreak && formattedHasBreak:
		return strings.TrimRight(formatted, trailingLineBreakCutset)
	default:
		return formatted
	}
}

func (engine *engine) warn(warning Warning) {
	warning.Line += engine.lineOffset
	engine.state.warnings = append(engine.state.warnings, warning)
}

// formatBody runs the link pass and then reflows every Text span.
func (engine *engine) formatBody(body string) string {
	body = engine.rewriteLinks(body)
	spans, warnings := Classify(body, engine.options)
	for _, warning := range warnings {
		engine.warn(warning)
	}
	var output strings.Builder
	output.Grow(len(body))
	for _, span := range spans {
		text := span.Text(body)
		switch {
		case span.Kind == SpanText && span.Block == BlockQuote:
			output.WriteString(engine.formatQuote(text, span.Indent, strings.Count(body[:span.Start], lineSeparator)))
		case span.Kind == SpanText:
			output.WriteString(engine.reflowText(text, span.Indent))
		default:
			output.WriteString(text)
		}
	}
	return output.String()
}

// stripQuoteMarkers removes one level of block quote markers, with the space
// following each, from raw. Lazy continuation lines keep their text.
func stripQuoteMarkers(raw string) string {
	lines := strings.Split(raw, lineSeparator)
	for index, line := range lines {
		line = strings.TrimLeft(strings.TrimSuffix(line, "\r"), " \t")
		if strings.HasPrefix(line, emptyQuotePrefix) {
			line = line[1:]
			if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
				line = line[1:]
			}
		}
		lines[index] = line
	}
	return strings.Join(lines, lineSeparator)
}

// formatQuote strips one level of quote markers, formats the quoted body with
// the remaining width and puts the markers back.
func (engine *engine) formatQuote(raw string, indent string, lineOffset int) string {
	quoted := engine.options
	if quoted.MaxWidth > 0 {
		quoted.MaxWidth = max(1, quoted.MaxWidth-runeWidth(indent)-quoteMarkerWidth)
	}
	inner := newEngine(quoted, engine.state)
	inner.lineOffset = engine.lineOffset + lineOffset
	body := stripQuoteMarkers(raw)
	formatted := matchTrailingLineBreak(inner.formatBody(body), body)

	var output strings.Builder
	for index, line := range strings.Split(formatted, lineSeparator) {
		if index > 0 {
			output.WriteString(lineSeparator + indent)
		}
		if line == "" {
			output.WriteString(emptyQuotePrefix)
			continue
		}
		output.WriteString(quotePrefix + line)
	}
	return output.String()
}
