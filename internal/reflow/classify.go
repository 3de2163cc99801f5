package reflow

import (
	"fmt"
	"strings"
)

const (
	frontMatterDelimiter    = "---"
	frontMatterEndDelimiter = "..."

	unterminatedIgnoreFormat      = "ignore range opened by %q is not closed; it extends to the end of the document"
	unterminatedFenceFormat       = "code fence opened on line %d is not closed; it extends to the end of the document"
	unterminatedFrontMatterFormat = "front matter delimiter on line 1 is not closed; the block is treated as markdown"
)

type classifierState uint8

const (
	stateBlock classifierState = iota
	stateParagraph
	stateIndentedCode
	stateFencedCode
	stateHTML
	stateTable
	stateFootnote
	stateQuote
	stateIgnored
	stateCount
)

type lineHandler func(currentClassifier *classifier, index int)

var transitions = [stateCount]lineHandler{
	stateBlock:        (*classifier).startBlock,
	stateParagraph:    (*classifier).continueParagraph,
	stateIndentedCode: (*classifier).continueIndentedCode,
	stateFencedCode:   (*classifier).continueFencedCode,
	stateHTML:         (*classifier).continueHTML,
	stateTable:        (*classifier).continueTable,
	stateFootnote:     (*classifier).continueFootnote,
	stateQuote:        (*classifier).continueQuote,
	stateIgnored:      (*classifier).continueIgnored,
}

type sourceLine struct {
	start int
	end   int
	next  int
}

// lineShape is the leading-whitespace analysis of a line.
type lineShape struct {
	columns int
	offset  int
	content string
	blank   bool
}

type region struct {
	kind   SpanKind
	block  BlockKind
	start  int
	end    int
	indent string
}

type classifier struct {
	document string
	lines    []sourceLine
	options  Options
	state    classifierState
	regions  []region
	warnings []Warning

	current        *region
	paragraphFirst int
	paragraphStart int
	hardBreak      bool
	lists          []int

	fenceCharacter byte
	fenceLength    int
	fenceLine      int
	html           htmlBlock
	quoteLazy      bool
	footnoteBlank  bool
	ignoreEnd      string
	ignoreMarker   string
}

// Classify splits document into contiguous spans covering every byte.
func Classify(document string, options Options) ([]Span, []Warning) {
	currentClassifier := &classifier{document: document, lines: splitLines(document), options: options}
	first := currentClassifier.frontMatter()
	for index := first; index < len(currentClassifier.lines); index++ {
		transitions[currentClassifier.state](currentClassifier, index)
	}
	currentClassifier.finish()
	return currentClassifier.spans(), currentClassifier.warnings
}

func splitLines(document string) []sourceLine {
	var lines []sourceLine
	start := 0
	for start < len(document) {
		next := strings.IndexByte(document[start:], lineFeed)
		if next < 0 {
			lines = append(lines, sourceLine{start: start, end: trimCarriageReturn(document, start, len(document)), next: len(document)})
			break
		}
		end := start + next
		lines = append(lines, sourceLine{start: start, end: trimCarriageReturn(document, start, end), next: end + 1})
		start = end + 1
	}
	return lines
}

func trimCarriageReturn(document string, start int, end int) int {
	if end > start && document[end-1] == '\r' {
		return end - 1
	}
	return end
}

func (currentClassifier *classifier) text(index int) string {
	line := currentClassifier.lines[index]
	return currentClassifier.document[line.start:line.end]
}

func (currentClassifier *classifier) shape(index int) lineShape {
	text := currentClassifier.text(index)
	columns, offset := columnsOf(text, 0)
	content := text[offset:]
	return lineShape{columns: columns, offset: offset, content: content, blank: strings.TrimSpace(content) == ""}
}

// frontMatter records a leading YAML block and returns the first line after it.
func (currentClassifier *classifier) frontMatter() int {
	if len(currentClassifier.lines) == 0 || currentClassifier.text(0) != frontMatterDelimiter {
		return 0
	}
	for index := 1; index < len(currentClassifier.lines); index++ {
		text := currentClassifier.text(index)
		if text == frontMatterDelimiter || text == frontMatterEndDelimiter {
			currentClassifier.addRegion(SpanProtected, BlockFrontMatter, 0, currentClassifier.lines[index].end, "")
			return index + 1
		}
	}
	currentClassifier.warn(0, unterminatedFrontMatterFormat)
	return 0
}

func (currentClassifier *classifier) warn(index int, message string) {
	currentClassifier.warnings = append(currentClassifier.warnings, Warning{Kind: WarningMalformedInput, Line: index + 1, Message: message})
}

func (currentClassifier *classifier) addRegion(kind SpanKind, block BlockKind, start int, end int, indent string) {
	if end <= start {
		return
	}
	currentClassifier.regions = append(currentClassifier.regions, region{kind: kind, block: block, start: start, end: end, indent: indent})
}

func (currentClassifier *classifier) open(kind SpanKind, block BlockKind, start int, end int, indent string) {
	currentClassifier.closeRegion()
	currentClassifier.current = &region{kind: kind, block: block, start: start, end: end, indent: indent}
}

func (currentClassifier *classifier) extend(end int) {
	if currentClassifier.current != nil && end > currentClassifier.current.end {
		currentClassifier.current.end = end
	}
}

func (currentClassifier *classifier) closeRegion() {
	if currentClassifier.current == nil {
		return
	}
	open := *currentClassifier.current
	currentClassifier.current = nil
	currentClassifier.addRegion(open.kind, open.block, open.start, open.end, open.indent)
}

func (currentClassifier *classifier) toBlock() {
	currentClassifier.closeRegion()
	currentClassifier.hardBreak = false
	currentClassifier.state = stateBlock
}

// redispatch ends the current construct and classifies the line afresh.
func (currentClassifier *classifier) redispatch(index int) {
	currentClassifier.toBlock()
	currentClassifier.startBlock(index)
}

func (currentClassifier *classifier) popLists(columns int) {
	for len(currentClassifier.lists) > 0 && columns < currentClassifier.lists[len(currentClassifier.lists)-1] {
		currentClassifier.lists = currentClassifier.lists[:len(currentClassifier.lists)-1]
	}
}

// containerColumn returns the content column of the innermost list item that a
// line indented by columns still belongs to.
func (currentClassifier *classifier) containerColumn(columns int) int {
	for index := len(currentClassifier.lists) - 1; index >= 0; index-- {
		if currentClassifier.lists[index] <= columns {
			return currentClassifier.lists[index]
		}
	}
	return 0
}

func (currentClassifier *classifier) startBlock(index int) {
	shape := currentClassifier.shape(index)
	if shape.blank {
		return
	}
	currentClassifier.popLists(shape.columns)
	line := currentClassifier.lines[index]
	if shape.columns-currentClassifier.containerColumn(shape.columns) >= indentedCodeColumns {
		currentClassifier.open(SpanOpaque, BlockIndentedCode, line.start, line.end, "")
		currentClassifier.state = stateIndentedCode
		return
	}
	currentClassifier.startConstruct(index, line.start+shape.offset, shape.columns)
}

// startConstruct classifies the block beginning at byte position on line index.
// column is the visual column of position, used for nested list items.
func (currentClassifier *classifier) startConstruct(index int, position int, column int) {
	line := currentClassifier.lines[index]
	content := currentClassifier.document[position:line.end]

	if end, isIgnore := currentClassifier.ignoreStart(content); isIgnore {
		currentClassifier.addRegion(SpanOpaque, BlockHTML, position, line.end, "")
		currentClassifier.ignoreEnd = end
		currentClassifier.ignoreMarker = strings.TrimSpace(content)
		currentClassifier.open(SpanProtected, BlockIgnored, line.next, line.next, "")
		currentClassifier.state = stateIgnored
		return
	}
	if fenceCharacter, fenceLength, isFence := fenceOpening(content); isFence {
		currentClassifier.fenceCharacter = fenceCharacter
		currentClassifier.fenceLength = fenceLength
		currentClassifier.fenceLine = index
		currentClassifier.open(SpanOpaque, BlockFencedCode, position, line.end, "")
		currentClassifier.state = stateFencedCode
		return
	}
	if atxHeadingPattern.MatchString(content) {
		currentClassifier.addRegion(SpanOpaque, BlockHeading, position, line.end, "")
		return
	}
	if thematicBreakPattern.MatchString(content) {
		currentClassifier.addRegion(SpanOpaque, BlockThematicBreak, position, line.end, "")
		return
	}
	if block, isHTML := detectHTMLBlock(content); isHTML {
		currentClassifier.startHTML(index, position, content, block)
		return
	}
	if content[0] == blockQuoteMarker {
		kind := SpanOpaque
		if currentClassifier.options.FormatBlockQuotes {
			kind = SpanText
		}
		prefix := currentClassifier.document[line.start:position]
		currentClassifier.open(kind, BlockQuote, position, line.end, indentFor(prefix))
		currentClassifier.quoteLazy = strings.TrimSpace(content[1:]) != ""
		currentClassifier.state = stateQuote
		return
	}
	if marker := footnotePattern.FindString(content); marker != "" {
		currentClassifier.startFootnote(index, position, marker)
		return
	}
	if isLinkDefinition(content) {
		currentClassifier.addRegion(SpanOpaque, BlockLinkDefinition, position, line.end, "")
		return
	}
	if currentClassifier.startsTable(index, content) {
		currentClassifier.open(SpanOpaque, BlockTable, position, line.end, "")
		currentClassifier.state = stateTable
		return
	}
	if width, _, isItem := listMarker(content); isItem {
		currentClassifier.startListItem(index, position, column, width)
		return
	}
	currentClassifier.startParagraph(index, position)
}

func (currentClassifier *classifier) startListItem(index int, position int, column int, width int) {
	line := currentClassifier.lines[index]
	rest := currentClassifier.document[position+width : line.end]
	spaceColumns, spaceBytes := columnsOf(rest, column+width)
	if strings.TrimSpace(rest) == "" || spaceColumns > indentedCodeColumns {
		currentClassifier.lists = append(currentClassifier.lists, column+width+1)
		if strings.TrimSpace(rest) == "" {
			return
		}
		currentClassifier.startParagraph(index, position+width+1)
		return
	}
	contentColumn := column + width + spaceColumns
	currentClassifier.lists = append(currentClassifier.lists, contentColumn)
	contentPosition := position + width + spaceBytes
	if checkbox := taskCheckbox(currentClassifier.document[contentPosition:line.end]); checkbox > 0 {
		afterCheckbox := currentClassifier.document[contentPosition+checkbox : line.end]
		_, skipped := columnsOf(afterCheckbox, 0)
		if strings.TrimSpace(afterCheckbox) == "" {
			return
		}
		currentClassifier.startParagraph(index, contentPosition+checkbox+skipped)
		return
	}
	currentClassifier.startConstruct(index, contentPosition, contentColumn)
}

func (currentClassifier *classifier) startParagraph(index int, position int) {
	line := currentClassifier.lines[index]
	prefix := currentClassifier.document[line.start:position]
	currentClassifier.paragraphFirst = len(currentClassifier.regions)
	currentClassifier.paragraphStart = position
	currentClassifier.open(SpanText, BlockParagraph, position, position, indentFor(prefix))
	currentClassifier.state = stateParagraph
	currentClassifier.addParagraphLine(index)
}

// addParagraphLine extends the open Text region with a line and splits the
// paragraph after a hard line break.
func (currentClassifier *classifier) addParagraphLine(index int) {
	line := currentClassifier.lines[index]
	text := currentClassifier.document[line.start:line.end]
	contentEnd := line.start + len(strings.TrimRight(text, " \t"))
	breakAt := contentEnd
	isHardBreak := len(text)-(contentEnd-line.start) >= 2 && strings.HasSuffix(text, "  ")
	if trimmed := currentClassifier.document[line.start:contentEnd]; strings.HasSuffix(trimmed, `\`) && !strings.HasSuffix(trimmed, `\\`) {
		isHardBreak = true
		breakAt = line.start + len(strings.TrimRight(trimmed[:len(trimmed)-1], " \t"))
	}
	currentClassifier.extend(breakAt)
	if isHardBreak {
		currentClassifier.closeRegion()
	}
	currentClassifier.hardBreak = isHardBreak
}

func (currentClassifier *classifier) continueParagraph(index int) {
	shape := currentClassifier.shape(index)
	if shape.blank {
		currentClassifier.toBlock()
		return
	}
	if currentClassifier.isSetextUnderline(shape) {
		currentClassifier.closeRegion()
		currentClassifier.regions = currentClassifier.regions[:currentClassifier.paragraphFirst]
		currentClassifier.addRegion(SpanOpaque, BlockHeading, currentClassifier.paragraphStart, currentClassifier.lines[index].end, "")
		currentClassifier.toBlock()
		return
	}
	if currentClassifier.interrupts(index, shape) {
		currentClassifier.redispatch(index)
		return
	}
	if currentClassifier.hardBreak {
		line := currentClassifier.lines[index]
		position := line.start + shape.offset
		currentClassifier.current = &region{kind: SpanText, block: BlockParagraph, start: position, end: position, indent: indentFor(currentClassifier.document[line.start:position])}
	}
	currentClassifier.addParagraphLine(index)
}

func (currentClassifier *classifier) isSetextUnderline(shape lineShape) bool {
	if shape.columns-currentClassifier.containerColumn(shape.columns) >= indentedCodeColumns {
		return false
	}
	return setextPattern.MatchString(shape.content)
}

// interrupts reports whether a line starts a block that ends a paragraph.
func (currentClassifier *classifier) interrupts(index int, shape lineShape) bool {
	if shape.blank {
		return true
	}
	if shape.columns-currentClassifier.containerColumn(shape.columns) >= indentedCodeColumns {
		return false
	}
	content := shape.content
	if _, _, isFence := fenceOpening(content); isFence {
		return true
	}
	if atxHeadingPattern.MatchString(content) || thematicBreakPattern.MatchString(content) {
		return true
	}
	if content[0] == blockQuoteMarker || footnotePattern.MatchString(content) {
		return true
	}
	if block, isHTML := detectHTMLBlock(content); isHTML && block.interrupting {
		return true
	}
	if _, interrupting, isItem := listMarker(content); isItem && interrupting {
		return true
	}
	return currentClassifier.startsTable(index, content)
}

func (currentClassifier *classifier) startsTable(index int, content string) bool {
	if !strings.ContainsRune(content, '|') || index+1 >= len(currentClassifier.lines) {
		return false
	}
	next := strings.TrimSpace(currentClassifier.text(index + 1))
	return strings.ContainsRune(next, '|') && tableDelimiterPattern.MatchString(next)
}

func (currentClassifier *classifier) continueIndentedCode(index int) {
	shape := currentClassifier.shape(index)
	if shape.blank {
		return
	}
	if shape.columns-currentClassifier.containerColumn(shape.columns) >= indentedCodeColumns {
		currentClassifier.extend(currentClassifier.lines[index].end)
		return
	}
	currentClassifier.redispatch(index)
}

func (currentClassifier *classifier) continueFencedCode(index int) {
	shape := currentClassifier.shape(index)
	currentClassifier.extend(currentClassifier.lines[index].end)
	if shape.columns-currentClassifier.containerColumn(shape.columns) < indentedCodeColumns &&
		isFenceClosing(shape.content, currentClassifier.fenceCharacter, currentClassifier.fenceLength) {
		currentClassifier.toBlock()
	}
}

func (currentClassifier *classifier) startHTML(index int, position int, content string, block htmlBlock) {
	line := currentClassifier.lines[index]
	if name, isCategory := linkCategoryName(content); isCategory && name != "" {
		currentClassifier.addRegion(SpanOpaque, BlockLinkCategory, position, line.end, "")
		return
	}
	currentClassifier.html = block
	currentClassifier.open(SpanOpaque, BlockHTML, position, line.end, "")
	if block.terminator != "" && strings.Contains(strings.ToLower(content[1:]), block.terminator) {
		currentClassifier.closeRegion()
		return
	}
	currentClassifier.state = stateHTML
}

func (currentClassifier *classifier) continueHTML(index int) {
	shape := currentClassifier.shape(index)
	if currentClassifier.html.untilBlank {
		if shape.blank {
			currentClassifier.toBlock()
			return
		}
		currentClassifier.extend(currentClassifier.lines[index].end)
		return
	}
	currentClassifier.extend(currentClassifier.lines[index].end)
	if strings.Contains(strings.ToLower(currentClassifier.text(index)), currentClassifier.html.terminator) {
		currentClassifier.toBlock()
	}
}

func (currentClassifier *classifier) continueTable(index int) {
	shape := currentClassifier.shape(index)
	if shape.blank {
		currentClassifier.toBlock()
		return
	}
	if !strings.ContainsRune(shape.content, '|') && currentClassifier.interrupts(index, shape) {
		currentClassifier.redispatch(index)
		return
	}
	currentClassifier.extend(currentClassifier.lines[index].end)
}

func (currentClassifier *classifier) startFootnote(index int, position int, marker string) {
	line := currentClassifier.lines[index]
	currentClassifier.footnoteBlank = false
	currentClassifier.state = stateFootnote
	if !currentClassifier.options.Features.Has(FeatureFormatFootnotes) {
		currentClassifier.open(SpanProtected, BlockFootnote, position, line.end, "")
		return
	}
	textStart := position + len(marker)
	_, skipped := columnsOf(currentClassifier.document[textStart:line.end], 0)
	textStart += skipped
	currentClassifier.open(SpanText, BlockFootnote, textStart, textStart, footnoteContinuation)
	currentClassifier.extend(line.start + len(strings.TrimRight(currentClassifier.text(index), " \t")))
}

func (currentClassifier *classifier) continueFootnote(index int) {
	shape := currentClassifier.shape(index)
	if shape.blank {
		currentClassifier.footnoteBlank = true
		if currentClassifier.options.Features.Has(FeatureFormatFootnotes) {
			currentClassifier.closeRegion()
		}
		return
	}
	if shape.columns < indentedCodeColumns && (currentClassifier.footnoteBlank || currentClassifier.interrupts(index, shape)) {
		currentClassifier.redispatch(index)
		return
	}
	line := currentClassifier.lines[index]
	resumed := currentClassifier.footnoteBlank
	currentClassifier.footnoteBlank = false
	if !currentClassifier.options.Features.Has(FeatureFormatFootnotes) {
		currentClassifier.extend(line.end)
		return
	}
	contentEnd := line.start + len(strings.TrimRight(currentClassifier.text(index), " \t"))
	if !resumed && currentClassifier.current != nil {
		currentClassifier.extend(contentEnd)
		return
	}
	if shape.columns >= 2*indentedCodeColumns {
		return
	}
	position := line.start + shape.offset
	currentClassifier.open(SpanText, BlockFootnote, position, contentEnd, indentFor(currentClassifier.document[line.start:position]))
}

func (currentClassifier *classifier) continueQuote(index int) {
	shape := currentClassifier.shape(index)
	if shape.blank {
		currentClassifier.toBlock()
		return
	}
	line := currentClassifier.lines[index]
	if shape.content[0] == blockQuoteMarker {
		currentClassifier.extend(line.end)
		currentClassifier.quoteLazy = strings.TrimSpace(shape.content[1:]) != ""
		return
	}
	if currentClassifier.quoteLazy && !currentClassifier.interrupts(index, shape) {
		currentClassifier.extend(line.end)
		return
	}
	currentClassifier.redispatch(index)
}

func (currentClassifier *classifier) ignoreStart(content string) (string, bool) {
	body, isComment := commentBody(content)
	if !isComment {
		return "", false
	}
	for _, markers := range currentClassifier.options.IgnoreMarkers {
		if body == markers.Start {
			return markers.End, true
		}
	}
	return "", false
}

func (currentClassifier *classifier) continueIgnored(index int) {
	body, isComment := commentBody(currentClassifier.text(index))
	if !isComment || body != currentClassifier.ignoreEnd {
		currentClassifier.extend(currentClassifier.lines[index].next)
		return
	}
	line := currentClassifier.lines[index]
	currentClassifier.closeRegion()
	_, offset := columnsOf(currentClassifier.text(index), 0)
	currentClassifier.addRegion(SpanOpaque, BlockHTML, line.start+offset, line.end, "")
	currentClassifier.state = stateBlock
}

// finish closes the construct still open at the end of the document.
func (currentClassifier *classifier) finish() {
	lastLine := len(currentClassifier.lines) - 1
	switch currentClassifier.state {
	case stateIgnored:
		currentClassifier.extend(len(currentClassifier.document))
		currentClassifier.warn(lastLine, fmt.Sprintf(unterminatedIgnoreFormat, currentClassifier.ignoreMarker))
	case stateFencedCode:
		currentClassifier.warn(currentClassifier.fenceLine, fmt.Sprintf(unterminatedFenceFormat, currentClassifier.fenceLine+1))
	}
	currentClassifier.toBlock()
}

// spans fills the gaps between regions with opaque markup spans.
func (currentClassifier *classifier) spans() []Span {
	spans := make([]Span, 0, 2*len(currentClassifier.regions)+1)
	cursor := 0
	for _, current := range currentClassifier.regions {
		if current.start > cursor {
			spans = append(spans, Span{Kind: SpanOpaque, Block: BlockMarkup, Start: cursor, End: current.start})
		}
		spans = append(spans, Span{Kind: current.kind, Block: current.block, Start: current.start, End: current.end, Indent: current.indent})
		cursor = current.end
	}
	if cursor < len(currentClassifier.document) {
		spans = append(spans, Span{Kind: SpanOpaque, Block: BlockMarkup, Start: cursor, End: len(currentClassifier.document)})
	}
	return spans
}
