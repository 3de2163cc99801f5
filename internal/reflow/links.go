package reflow

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

const (
	anchorPrefix = "#"
	labelOpen    = "["
	labelClose   = "]"

	droppedTitleFormat = "title %s dropped, link reuses definition %q of %s"
)

type linkForm uint8

const (
	linkInline linkForm = iota
	linkReference
	linkCollapsed
	linkShortcut
)

// inlineLink locates a link inside the raw text of a Text span.
type inlineLink struct {
	form        linkForm
	image       bool
	start       int
	end         int
	textStart   int
	textEnd     int
	labelStart  int
	labelEnd    int
	destination string
	title       string
}

// LinkDefinition is a link reference definition such as `[label]: url "title"`.
type LinkDefinition struct {
	Label       string
	Destination string
	Title       string
	Category    string
}

func (definition LinkDefinition) String() string {
	line := labelOpen + definition.Label + labelClose + ": " + definition.Destination
	if definition.Title != "" {
		line += " " + definition.Title
	}
	return line
}

// ParseLinkDefinition parses a single-line link reference definition.
func ParseLinkDefinition(line string) (LinkDefinition, bool) {
	match := linkDefinitionPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil || strings.HasPrefix(match[1], "^") {
		return LinkDefinition{}, false
	}
	return LinkDefinition{Label: match[1], Destination: match[2], Title: match[3]}, true
}

// normalizeLabel implements label matching: case folding and collapsed whitespace.
func normalizeLabel(label string) string {
	fields := strings.FieldsFunc(label, func(character rune) bool {
		return unicode.IsSpace(character) || IsProtectedSpace(character)
	})
	return cases.Fold().String(strings.Join(fields, wordSeparator))
}

// linkRegistry tracks labels and destinations known across one Format call.
type linkRegistry struct {
	labels       map[string]struct{}
	destinations map[string]LinkDefinition
	counter      int
}

// newLinkRegistry indexes the definitions the classifier recognizes in document,
// including those inside block quotes. Lines in code, HTML or ignored ranges do
// not define links.
func newLinkRegistry(document string, options Options) *linkRegistry {
	registry := &linkRegistry{labels: map[string]struct{}{}, destinations: map[string]LinkDefinition{}}
	registry.index(document, options)
	return registry
}

func (registry *linkRegistry) index(document string, options Options) {
	spans, _ := Classify(document, options)
	for _, span := range spans {
		switch span.Block {
		case BlockLinkDefinition:
			if definition, isDefinition := ParseLinkDefinition(span.Text(document)); isDefinition {
				registry.add(definition)
			}
		case BlockQuote:
			registry.index(stripQuoteMarkers(span.Text(document)), options)
		}
	}
}

func (registry *linkRegistry) add(definition LinkDefinition) {
	registry.labels[normalizeLabel(definition.Label)] = struct{}{}
	if _, known := registry.destinations[definition.Destination]; !known {
		registry.destinations[definition.Destination] = definition
	}
}

func (registry *linkRegistry) knows(label string) bool {
	_, known := registry.labels[normalizeLabel(label)]
	return known
}

// labelFor returns the existing definition of destination or mints one with the
// next free numeric label. Destinations are matched case-sensitively and titles
// are not part of the match.
func (registry *linkRegistry) labelFor(destination string, title string) (LinkDefinition, bool) {
	if definition, known := registry.destinations[destination]; known {
		return definition, false
	}
	for {
		registry.counter++
		label := strconv.Itoa(registry.counter)
		if registry.knows(label) {
			continue
		}
		definition := LinkDefinition{Label: label, Destination: destination, Title: title}
		registry.add(definition)
		return definition, true
	}
}

// scanLinks finds links and images in text. Code spans and escapes are skipped.
func scanLinks(text string, registry *linkRegistry) []inlineLink {
	var links []inlineLink
	for index := 0; index < len(text); {
		switch text[index] {
		case '\\':
			index += 2
		case '`':
			index = skipCodeSpan(text, index)
		case '!':
			if index+1 < len(text) && text[index+1] == '[' {
				if link, parsed := parseLink(text, index+1, registry); parsed {
					link.image = true
					link.start = index
					links = append(links, link)
					index = link.end
					continue
				}
			}
			index++
		case '[':
			if link, parsed := parseLink(text, index, registry); parsed {
				links = append(links, link)
				index = link.end
				continue
			}
			index++
		default:
			index++
		}
	}
	return links
}

func parseLink(text string, open int, registry *linkRegistry) (inlineLink, bool) {
	closing := matchBracket(text, open)
	if closing < 0 || strings.HasPrefix(text[open+1:], "^") {
		return inlineLink{}, false
	}
	link := inlineLink{start: open, textStart: open + 1, textEnd: closing}
	next := closing + 1
	if next < len(text) && text[next] == '(' {
		destination, title, end, parsed := parseInlineTail(text, next)
		if parsed {
			link.form = linkInline
			link.destination = destination
			link.title = title
			link.end = end
			return link, true
		}
	}
	if next < len(text) && text[next] == '[' {
		labelClosing := matchBracket(text, next)
		if labelClosing > 0 {
			link.labelStart = next + 1
			link.labelEnd = labelClosing
			link.end = labelClosing + 1
			link.form = linkReference
			if labelClosing == next+1 {
				link.form = linkCollapsed
			}
			return link, true
		}
	}
	if registry.knows(text[link.textStart:link.textEnd]) {
		link.form = linkShortcut
		link.end = next
		return link, true
	}
	return inlineLink{}, false
}

// matchBracket returns the index of the bracket closing the one at open.
func matchBracket(text string, open int) int {
	depth := 0
	for index := open; index < len(text); {
		switch text[index] {
		case '\\':
			index += 2
			continue
		case '`':
			index = skipCodeSpan(text, index)
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return index
			}
		}
		index++
	}
	return -1
}

// skipCodeSpan returns the index after the code span opened at index, or after
// the backtick run when it is never closed.
func skipCodeSpan(text string, index int) int {
	runLength := countLeading(text[index:], '`')
	fence := text[index : index+runLength]
	for search := index + runLength; search < len(text); {
		found := strings.Index(text[search:], fence)
		if found < 0 {
			break
		}
		candidate := search + found
		if countLeading(text[candidate:], '`') == runLength {
			return candidate + runLength
		}
		search = candidate + countLeading(text[candidate:], '`')
	}
	return index + runLength
}

// parseInlineTail parses `(destination "title")` starting at the parenthesis.
func parseInlineTail(text string, open int) (string, string, int, bool) {
	index := skipSpaces(text, open+1)
	destinationStart := index
	if index < len(text) && text[index] == '<' {
		closing := strings.IndexAny(text[index:], ">\n")
		if closing < 0 || text[index+closing] != '>' {
			return "", "", 0, false
		}
		index += closing + 1
	} else {
		depth := 0
	destination:
		for index < len(text) {
			switch character := text[index]; {
			case character == '\\' && index+1 < len(text):
				index += 2
				continue
			case character == '(':
				depth++
			case character == ')':
				if depth == 0 {
					break destination
				}
				depth--
			case character == ' ' || character == '\t' || character == '\n':
				break destination
			}
			index++
		}
	}
	destination := text[destinationStart:index]
	index = skipSpaces(text, index)
	title := ""
	if index < len(text) && index > destinationStart && strings.ContainsRune(`"'(`, rune(text[index])) {
		closer := text[index]
		if closer == '(' {
			closer = ')'
		}
		end := strings.IndexByte(text[index+1:], closer)
		if end < 0 {
			return "", "", 0, false
		}
		title = text[index : index+end+2]
		index = skipSpaces(text, index+end+2)
	}
	if index >= len(text) || text[index] != ')' {
		return "", "", 0, false
	}
	return destination, title, index + 1, true
}

func skipSpaces(text string, index int) int {
	for index < len(text) && (text[index] == ' ' || text[index] == '\t' || text[index] == '\n' || text[index] == '\r') {
		index++
	}
	return index
}

// protectWhitespace replaces every whitespace run with one non-breaking space.
func protectWhitespace(text string) string {
	var output strings.Builder
	inRun := false
	for _, character := range text {
		if unicode.IsSpace(character) && !IsProtectedSpace(character) {
			if !inRun {
				output.WriteRune(noBreakSpace)
			}
			inRun = true
			continue
		}
		inRun = false
		output.WriteRune(character)
	}
	return output.String()
}

// rewriteInlineLinks applies non-breaking link texts and link outsourcing to
// the raw text of one Text span starting on the zero-based line firstLine.
// Newly minted definitions are returned.
func (engine *engine) rewriteInlineLinks(text string, firstLine int) (string, []LinkDefinition) {
	links := scanLinks(text, engine.state.registry)
	if len(links) == 0 {
		return text, nil
	}
	protect := !engine.options.KeepWhitespace.Has(KeepInLinks)
	outsource := engine.options.LinkActions.Has(OutsourceInlineLinks)
	var created []LinkDefinition
	var output strings.Builder
	cursor := 0
	for _, link := range links {
		output.WriteString(text[cursor:link.start])
		cursor = link.end
		linkText := text[link.textStart:link.textEnd]
		if protect && !link.image {
			linkText = protectWhitespace(linkText)
		}
		if outsource && !link.image && link.form == linkInline && engine.isOutsourceable(link, linkText) {
			definition, isNew := engine.state.registry.labelFor(link.destination, link.title)
			if isNew {
				created = append(created, definition)
			} else if link.title != "" && link.title != definition.Title {
				engine.warn(Warning{
					Kind:    WarningDroppedTitle,
					Line:    firstLine + strings.Count(text[:link.start], lineSeparator) + 1,
					Message: fmt.Sprintf(droppedTitleFormat, link.title, definition.Label, link.destination),
				})
			}
			output.WriteString(labelOpen + linkText + labelClose)
			if linkText != definition.Label {
				output.WriteString(labelOpen + definition.Label + labelClose)
			}
			continue
		}
		output.WriteString(text[link.start:link.textStart])
		output.WriteString(linkText)
		switch link.form {
		case linkReference:
			label := text[link.labelStart:link.labelEnd]
			if protect {
				label = protectWhitespace(label)
			}
			output.WriteString(labelClose + labelOpen + label + labelClose)
		default:
			output.WriteString(text[link.textEnd:link.end])
		}
	}
	output.WriteString(text[cursor:])
	return output.String(), created
}

func (engine *engine) isOutsourceable(link inlineLink, linkText string) bool {
	if strings.TrimSpace(linkText) == "" || strings.HasPrefix(link.destination, anchorPrefix) {
		return false
	}
	return link.destination != ""
}

// protectDefinitionLabel rewrites the label of a link definition line.
func protectDefinitionLabel(line string) string {
	closing := matchBracket(line, 0)
	if !strings.HasPrefix(line, labelOpen) || closing < 0 {
		return line
	}
	return labelOpen + protectWhitespace(line[1:closing]) + line[closing:]
}
