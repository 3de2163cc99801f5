package reflow

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type spanSummary struct {
	Kind  SpanKind
	Block BlockKind
	Text  string
}

func summarize(document string, spans []Span) []spanSummary {
	var summaries []spanSummary
	for _, span := range spans {
		if span.Block == BlockMarkup {
			continue
		}
		summaries = append(summaries, spanSummary{Kind: span.Kind, Block: span.Block, Text: span.Text(document)})
	}
	return summaries
}

func TestClassifyRecognizesBlocks(testingHandle *testing.T) {
	testingHandle.Parallel()

	testCases := []struct {
		name      string
		document  string
		configure func(*Options)
		expected  []spanSummary
	}{
		{
			name:     "paragraphs_and_headings",
			document: "# Title\n\nSome text\nmore text\n",
			expected: []spanSummary{
				{Kind: SpanOpaque, Block: BlockHeading, Text: "# Title"},
				{Kind: SpanText, Block: BlockParagraph, Text: "Some text\nmore text"},
			},
		},
		{
			name:     "fenced_code_hides_ignore_markers",
			document: "```\n<!-- slw-ignore-start -->\n```\ntext\n",
			expected: []spanSummary{
				{Kind: SpanOpaque, Block: BlockFencedCode, Text: "```\n<!-- slw-ignore-start -->\n```"},
				{Kind: SpanText, Block: BlockParagraph, Text: "text"},
			},
		},
		{
			name:     "nested_list_items",
			document: "- outer\n  - inner\n",
			expected: []spanSummary{
				{Kind: SpanText, Block: BlockParagraph, Text: "outer"},
				{Kind: SpanText, Block: BlockParagraph, Text: "inner"},
			},
		},
		{
			name:     "link_definitions_and_categories",
			document: "<!-- link-category: docs -->\n[a]: http://a\n",
			expected: []spanSummary{
				{Kind: SpanOpaque, Block: BlockLinkCategory, Text: "<!-- link-category: docs -->"},
				{Kind: SpanOpaque, Block: BlockLinkDefinition, Text: "[a]: http://a"},
			},
		},
		{
			name:     "front_matter_is_protected",
			document: "---\na: b\n---\n",
			expected: []spanSummary{
				{Kind: SpanProtected, Block: BlockFrontMatter, Text: "---\na: b\n---"},
			},
		},
		{
			name:     "block_quote_with_lazy_continuation",
			document: "> quoted\nlazy\n\nafter\n",
			expected: []spanSummary{
				{Kind: SpanOpaque, Block: BlockQuote, Text: "> quoted\nlazy"},
				{Kind: SpanText, Block: BlockParagraph, Text: "after"},
			},
		},
		{
			name:      "block_quote_is_text_when_enabled",
			document:  "> quoted\n",
			configure: func(options *Options) { options.FormatBlockQuotes = true },
			expected: []spanSummary{
				{Kind: SpanText, Block: BlockQuote, Text: "> quoted"},
			},
		},
		{
			name:     "table_stops_at_blank_line",
			document: "a | b\n--|--\n1 | 2\n\ntext\n",
			expected: []spanSummary{
				{Kind: SpanOpaque, Block: BlockTable, Text: "a | b\n--|--\n1 | 2"},
				{Kind: SpanText, Block: BlockParagraph, Text: "text"},
			},
		},
		{
			name:     "footnote_with_indented_paragraph",
			document: "[^n]: first\n\n    second\n\nafter\n",
			expected: []spanSummary{
				{Kind: SpanProtected, Block: BlockFootnote, Text: "[^n]: first\n\n    second"},
				{Kind: SpanText, Block: BlockParagraph, Text: "after"},
			},
		},
		{
			name:     "ignored_range",
			document: "<!-- slw-ignore-start -->\nkeep  this\n<!-- slw-ignore-end -->\n",
			expected: []spanSummary{
				{Kind: SpanOpaque, Block: BlockHTML, Text: "<!-- slw-ignore-start -->"},
				{Kind: SpanProtected, Block: BlockIgnored, Text: "keep  this\n"},
				{Kind: SpanOpaque, Block: BlockHTML, Text: "<!-- slw-ignore-end -->"},
			},
		},
		{
			name:     "hard_break_splits_paragraph",
			document: "one\\\ntwo\n",
			expected: []spanSummary{
				{Kind: SpanText, Block: BlockParagraph, Text: "one"},
				{Kind: SpanText, Block: BlockParagraph, Text: "two"},
			},
		},
		{
			name:     "indented_code_after_paragraph",
			document: "text\n\n    code\n",
			expected: []spanSummary{
				{Kind: SpanText, Block: BlockParagraph, Text: "text"},
				{Kind: SpanOpaque, Block: BlockIndentedCode, Text: "    code"},
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestingHandle *testing.T) {
			subTestingHandle.Parallel()
			options := NewOptions()
			if testCase.configure != nil {
				testCase.configure(&options)
			}
			spans, _ := Classify(testCase.document, options)
			if difference := cmp.Diff(testCase.expected, summarize(testCase.document, spans)); difference != "" {
				subTestingHandle.Fatalf("unexpected spans (-want +got):\n%s", difference)
			}
		})
	}
}

func TestClassifySpansCoverDocument(testingHandle *testing.T) {
	document := strings.Join([]string{
		"---", "x: y", "---", "# H", "", "para one", "> quote", "", "```", "code", "```",
		"- item", "  cont", "", "| a | b |", "| - | - |", "", "<div>", "</div>", "", "[l]: u", "",
	}, "\n")
	spans, _ := Classify(document, NewOptions())
	var rebuilt strings.Builder
	cursor := 0
	for _, span := range spans {
		if span.Start != cursor {
			testingHandle.Fatalf("span %v does not start at %d", span, cursor)
		}
		rebuilt.WriteString(span.Text(document))
		cursor = span.End
	}
	if rebuilt.String() != document {
		testingHandle.Fatalf("spans do not reproduce the document")
	}
}

func TestClassifyIndentsListContinuations(testingHandle *testing.T) {
	spans, _ := Classify("10. item\n", NewOptions())
	for _, span := range spans {
		if span.Kind == SpanText && span.Indent != "    " {
			testingHandle.Fatalf("expected four-space indent, got %q", span.Indent)
		}
	}
}
