package reflow

import (
	"regexp"
	"strings"
)

const (
	tabStopWidth         = 4
	indentedCodeColumns  = 4
	fenceMinimumLength   = 3
	blockQuoteMarker     = '>'
	htmlCommentOpen      = "<!--"
	htmlCommentClose     = "-->"
	linkCategoryKey      = "link-category:"
	footnoteContinuation = "    "
)

var (
	atxHeadingPattern     = regexp.MustCompile(`^#{1,6}(?:[ \t]|$)`)
	thematicBreakPattern  = regexp.MustCompile(`^(?:(?:\*[ \t]*){3,}|(?:-[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	setextPattern         = regexp.MustCompile(`^(?:=+|-+)[ \t]*$`)
	tableDelimiterPattern = regexp.MustCompile(`^\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)
	footnotePattern       = regexp.MustCompile(`^\[\^[^\]\s]+\]:`)
	linkDefinitionPattern = regexp.MustCompile(`^\[((?:[^\]\\]|\\.)+)\]:[ \t]*(\S+)(?:[ \t]+(.*?))?[ \t]*$`)
	completeTagPattern    = regexp.MustCompile(`^(?:<[A-Za-z][A-Za-z0-9-]*(?:\s+[A-Za-z_:][A-Za-z0-9_.:-]*(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'=<>]+))?)*\s*/?>|</[A-Za-z][A-Za-z0-9-]*\s*>)[ \t]*$`)
	htmlTagNamePattern    = regexp.MustCompile(`^</?([A-Za-z][A-Za-z0-9-]*)(?:[\s/>]|$)`)
	orderedMarkerPattern  = regexp.MustCompile(`^([0-9]{1,9})[.)](?:[ \t]|$)`)
)

var rawHTMLTags = map[string]string{
	"script":   "</script>",
	"pre":      "</pre>",
	"style":    "</style>",
	"textarea": "</textarea>",
}

var blockHTMLTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "base": {}, "basefont": {}, "blockquote": {},
	"body": {}, "caption": {}, "center": {}, "col": {}, "colgroup": {}, "dd": {}, "details": {},
	"dialog": {}, "dir": {}, "div": {}, "dl": {}, "dt": {}, "fieldset": {}, "figcaption": {},
	"figure": {}, "footer": {}, "form": {}, "frame": {}, "frameset": {}, "h1": {}, "h2": {},
	"h3": {}, "h4": {}, "h5": {}, "h6": {}, "head": {}, "header": {}, "hr": {}, "html": {},
	"iframe": {}, "legend": {}, "li": {}, "link": {}, "main": {}, "menu": {}, "menuitem": {},
	"nav": {}, "noframes": {}, "ol": {}, "optgroup": {}, "option": {}, "p": {}, "param": {},
	"search": {}, "section": {}, "summary": {}, "table": {}, "tbody": {}, "td": {}, "tfoot": {},
	"th": {}, "thead": {}, "title": {}, "tr": {}, "track": {}, "ul": {},
}

// htmlBlock describes how an HTML block that starts on a line ends.
type htmlBlock struct {
	terminator   string
	untilBlank   bool
	interrupting bool
}

// detectHTMLBlock recognizes the start conditions of HTML blocks.
func detectHTMLBlock(content string) (htmlBlock, bool) {
	if !strings.HasPrefix(content, "<") {
		return htmlBlock{}, false
	}
	lowered := strings.ToLower(content)
	switch {
	case strings.HasPrefix(content, htmlCommentOpen):
		return htmlBlock{terminator: htmlCommentClose, interrupting: true}, true
	case strings.HasPrefix(content, "<?"):
		return htmlBlock{terminator: "?>", interrupting: true}, true
	case strings.HasPrefix(content, "<![CDATA["):
		return htmlBlock{terminator: "]]>", interrupting: true}, true
	case len(content) > 2 && content[1] == '!' && isASCIILetter(content[2]):
		return htmlBlock{terminator: ">", interrupting: true}, true
	}
	match := htmlTagNamePattern.FindStringSubmatch(lowered)
	if match == nil {
		return htmlBlock{}, false
	}
	tagName := match[1]
	if closing, raw := rawHTMLTags[tagName]; raw && !strings.HasPrefix(lowered, "</") {
		return htmlBlock{terminator: closing, interrupting: true}, true
	}
	if _, block := blockHTMLTags[tagName]; block {
		return htmlBlock{untilBlank: true, interrupting: true}, true
	}
	if completeTagPattern.MatchString(content) {
		return htmlBlock{untilBlank: true}, true
	}
	return htmlBlock{}, false
}

func isASCIILetter(character byte) bool {
	return (character >= 'a' && character <= 'z') || (character >= 'A' && character <= 'Z')
}

// fenceOpening returns the fence character and length of a code fence opener.
func fenceOpening(content string) (byte, int, bool) {
	if content == "" || (content[0] != '`' && content[0] != '~') {
		return 0, 0, false
	}
	fenceCharacter := content[0]
	length := countLeading(content, fenceCharacter)
	if length < fenceMinimumLength {
		return 0, 0, false
	}
	if fenceCharacter == '`' && strings.ContainsRune(content[length:], '`') {
		return 0, 0, false
	}
	return fenceCharacter, length, true
}

func isFenceClosing(content string, fenceCharacter byte, fenceLength int) bool {
	length := countLeading(content, fenceCharacter)
	return length >= fenceLength && strings.TrimSpace(content[length:]) == ""
}

func countLeading(content string, character byte) int {
	count := 0
	for count < len(content) && content[count] == character {
		count++
	}
	return count
}

// listMarker returns the byte width of a list item marker and whether the
// item may interrupt a paragraph.
func listMarker(content string) (int, bool, bool) {
	if content == "" {
		return 0, false, false
	}
	switch content[0] {
	case '-', '*', '+':
		if len(content) == 1 || content[1] == ' ' || content[1] == '\t' {
			return 1, strings.TrimSpace(content[1:]) != "", true
		}
		return 0, false, false
	}
	match := orderedMarkerPattern.FindStringSubmatch(content)
	if match == nil {
		return 0, false, false
	}
	width := len(match[1]) + 1
	return width, match[1] == "1" && strings.TrimSpace(content[width:]) != "", true
}

// taskCheckbox returns the width of a leading task list checkbox such as "[x] ".
func taskCheckbox(content string) int {
	if len(content) < 4 || content[0] != '[' || content[2] != ']' || (content[3] != ' ' && content[3] != '\t') {
		return 0
	}
	switch content[1] {
	case ' ', 'x', 'X':
		return 4
	default:
		return 0
	}
}

// commentBody returns the trimmed inside of a single-line HTML comment.
func commentBody(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, htmlCommentOpen) || !strings.HasSuffix(trimmed, htmlCommentClose) || len(trimmed) < len(htmlCommentOpen)+len(htmlCommentClose) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(htmlCommentOpen) : len(trimmed)-len(htmlCommentClose)]), true
}

// linkCategoryName returns the category named by a link-category comment.
func linkCategoryName(content string) (string, bool) {
	body, isComment := commentBody(content)
	if !isComment || !strings.HasPrefix(body, linkCategoryKey) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(body, linkCategoryKey)), true
}

func isLinkDefinition(content string) bool {
	match := linkDefinitionPattern.FindStringSubmatch(content)
	return match != nil && !strings.HasPrefix(match[1], "^")
}

// columnsOf measures leading whitespace in columns and bytes.
func columnsOf(text string, startColumn int) (int, int) {
	columns := startColumn
	for offset := 0; offset < len(text); offset++ {
		switch text[offset] {
		case ' ':
			columns++
		case '\t':
			columns += tabStopWidth - columns%tabStopWidth
		default:
			return columns - startColumn, offset
		}
	}
	return columns - startColumn, len(text)
}

// indentFor turns the bytes preceding a Text span on its first line into the
// prefix used by continuation lines: tabs survive and everything else is a space.
func indentFor(prefix string) string {
	var indent strings.Builder
	for _, character := range prefix {
		if character == '\t' {
			indent.WriteRune(character)
			continue
		}
		indent.WriteByte(' ')
	}
	return indent.String()
}
