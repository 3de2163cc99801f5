package reflow

// SpanKind tells the engine whether a span may be rewritten.
type SpanKind uint8

const (
	// SpanText is prose that is normalized, split and wrapped.
	SpanText SpanKind = iota
	// SpanProtected is content the user asked to keep verbatim.
	SpanProtected
	// SpanOpaque is markup that is re-emitted byte for byte.
	SpanOpaque
)

var spanKindNames = [...]string{
	SpanText:      "text",
	SpanProtected: "protected",
	SpanOpaque:    "opaque",
}

func (kind SpanKind) String() string {
	if int(kind) < len(spanKindNames) {
		return spanKindNames[kind]
	}
	return "unknown"
}

// BlockKind names the construct a span was classified from.
type BlockKind uint8

const (
	BlockMarkup BlockKind = iota
	BlockParagraph
	BlockFrontMatter
	BlockFencedCode
	BlockIndentedCode
	BlockHTML
	BlockTable
	BlockFootnote
	BlockQuote
	BlockLinkDefinition
	BlockLinkCategory
	BlockIgnored
	BlockHeading
	BlockThematicBreak
)

var blockKindNames = [...]string{
	BlockMarkup:         "markup",
	BlockParagraph:      "paragraph",
	BlockFrontMatter:    "front-matter",
	BlockFencedCode:     "fenced-code",
	BlockIndentedCode:   "indented-code",
	BlockHTML:           "html",
	BlockTable:          "table",
	BlockFootnote:       "footnote",
	BlockQuote:          "block-quote",
	BlockLinkDefinition: "link-definition",
	BlockLinkCategory:   "link-category",
	BlockIgnored:        "ignored",
	BlockHeading:        "heading",
	BlockThematicBreak:  "thematic-break",
}

func (kind BlockKind) String() string {
	if int(kind) < len(blockKindNames) {
		return blockKindNames[kind]
	}
	return "unknown"
}

// Span is a contiguous byte range of a document. Indent is the prefix that
// continuation lines of a Text span are written with.
type Span struct {
	Kind   SpanKind
	Block  BlockKind
	Start  int
	End    int
	Indent string
}

// Text returns the bytes of document covered by the span.
func (span Span) Text(document string) string {
	return document[span.Start:span.End]
}
