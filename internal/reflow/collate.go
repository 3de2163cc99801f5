package reflow

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

const (
	linkCategoryFormat      = "<!-- link-category: %s -->"
	duplicateLabelFormat    = "link definition %q is already defined; dropping %q"
	paragraphSeparator      = "\n\n"
	lineSeparator           = "\n"
	trailingLineBreakCutset = "\r\n"
)

type categorizedDefinition struct {
	definition LinkDefinition
	line       int
	order      int
}

// rewriteLinks runs the link pass over a body: link texts, outsourcing and
// collation. The body is classified again afterwards by the caller.
func (engine *engine) rewriteLinks(body string) string {
	protect := !engine.options.KeepWhitespace.Has(KeepInLinks)
	if !protect && engine.options.LinkActions == 0 {
		return body
	}
	spans, _ := Classify(body, engine.options)
	var output strings.Builder
	var created []LinkDefinition
	for _, span := range spans {
		text := span.Text(body)
		switch {
		case span.Kind == SpanText && span.Block != BlockQuote:
			rewritten, definitions := engine.rewriteInlineLinks(text, strings.Count(body[:span.Start], lineSeparator))
			created = append(created, definitions...)
			output.WriteString(rewritten)
		case span.Block == BlockLinkDefinition && protect:
			output.WriteString(protectDefinitionLabel(text))
		default:
			output.WriteString(text)
		}
	}
	rewritten := output.String()
	if engine.options.LinkActions.Has(CollateDefinitions) {
		return engine.collate(rewritten, created)
	}
	return appendDefinitions(rewritten, created)
}

// appendDefinitions adds definitions after the last line of body.
func appendDefinitions(body string, definitions []LinkDefinition) string {
	if len(definitions) == 0 {
		return body
	}
	trimmed := strings.TrimRight(body, trailingLineBreakCutset)
	lines := make([]string, 0, len(definitions))
	for _, definition := range definitions {
		lines = append(lines, definition.String())
	}
	block := strings.Join(lines, lineSeparator) + lineSeparator
	if trimmed == "" {
		return block
	}
	lastLine := trimmed[strings.LastIndexByte(trimmed, lineFeed)+1:]
	if _, isDefinition := ParseLinkDefinition(lastLine); isDefinition {
		return trimmed + lineSeparator + block
	}
	return trimmed + paragraphSeparator + block
}

// collate moves top-level link definitions to the end of body, grouped by the
// category comment preceding them and sorted by label.
func (engine *engine) collate(body string, created []LinkDefinition) string {
	spans, _ := Classify(body, engine.options)
	lines := splitLines(body)
	removed := make([]bool, len(lines))
	lineOf := lineIndexer(lines)

	categories := map[string]string{}
	var collected []categorizedDefinition
	currentCategory := ""
	for _, span := range spans {
		if span.Start > 0 && body[span.Start-1] != lineFeed {
			continue
		}
		switch span.Block {
		case BlockLinkCategory:
			name, _ := linkCategoryName(span.Text(body))
			currentCategory = name
			categories[categoryKey(name)] = name
			removed[lineOf(span.Start)] = true
		case BlockLinkDefinition:
			definition, isDefinition := ParseLinkDefinition(span.Text(body))
			if !isDefinition {
				continue
			}
			definition.Category = currentCategory
			line := lineOf(span.Start)
			removed[line] = true
			collected = append(collected, categorizedDefinition{definition: definition, line: line, order: len(collected)})
		}
	}
	for _, definition := range created {
		collected = append(collected, categorizedDefinition{definition: definition, line: len(lines), order: len(collected)})
	}
	if len(collected) == 0 && len(categories) == 0 {
		return body
	}

	var rest strings.Builder
	keptContent := false
	lastKeptBlank := false
	separated := false
	for index, line := range lines {
		if removed[index] {
			separated = keptContent && !lastKeptBlank
			continue
		}
		isBlank := strings.TrimSpace(body[line.start:line.end]) == ""
		if isBlank && ((index+1 < len(lines) && removed[index+1]) || !keptContent) {
			continue
		}
		// A removed line ended the block above it. Keep that boundary so the
		// next line is not read as a continuation.
		if separated && !isBlank {
			rest.WriteString(lineSeparator)
		}
		separated = false
		keptContent = true
		lastKeptBlank = isBlank
		rest.WriteString(body[line.start:line.next])
	}
	block := engine.definitionBlock(engine.deduplicate(collected), categories)
	trimmed := strings.TrimRight(rest.String(), trailingLineBreakCutset)
	if strings.TrimSpace(trimmed) == "" {
		return block
	}
	return trimmed + paragraphSeparator + block
}

// deduplicate keeps the first definition of every label.
func (engine *engine) deduplicate(collected []categorizedDefinition) []categorizedDefinition {
	seen := map[string]string{}
	unique := collected[:0]
	for _, current := range collected {
		key := normalizeLabel(current.definition.Label)
		if first, duplicate := seen[key]; duplicate {
			engine.warn(Warning{
				Kind:    WarningDuplicateDefinition,
				Line:    current.line + 1,
				Message: fmt.Sprintf(duplicateLabelFormat, first, current.definition.String()),
			})
			continue
		}
		seen[key] = current.definition.Label
		unique = append(unique, current)
	}
	return unique
}

func (engine *engine) definitionBlock(collected []categorizedDefinition, categories map[string]string) string {
	grouped := map[string][]categorizedDefinition{}
	for _, current := range collected {
		key := categoryKey(current.definition.Category)
		grouped[key] = append(grouped[key], current)
	}
	categoryKeys := make([]string, 0, len(categories))
	for key := range categories {
		if key != "" {
			categoryKeys = append(categoryKeys, key)
		}
	}
	sort.Strings(categoryKeys)

	var sections []string
	if uncategorized := grouped[""]; len(uncategorized) > 0 {
		sections = append(sections, renderDefinitions(uncategorized))
	}
	for _, key := range categoryKeys {
		section := fmt.Sprintf(linkCategoryFormat, categories[key])
		if definitions := grouped[key]; len(definitions) > 0 {
			section += paragraphSeparator + renderDefinitions(definitions)
		}
		sections = append(sections, section)
	}
	return strings.Join(sections, paragraphSeparator) + lineSeparator
}

func renderDefinitions(definitions []categorizedDefinition) string {
	sort.SliceStable(definitions, func(left, right int) bool {
		return normalizeLabel(definitions[left].definition.Label) < normalizeLabel(definitions[right].definition.Label)
	})
	lines := make([]string, 0, len(definitions))
	for _, current := range definitions {
		lines = append(lines, current.definition.String())
	}
	return strings.Join(lines, lineSeparator)
}

func categoryKey(name string) string {
	return cases.Fold().String(name)
}

// lineIndexer maps a byte offset to the index of the line containing it.
func lineIndexer(lines []sourceLine) func(offset int) int {
	return func(offset int) int {
		return sort.Search(len(lines), func(index int) bool {
			return lines[index].next > offset
		})
	}
}
