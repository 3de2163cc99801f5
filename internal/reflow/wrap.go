package reflow

import (
	"regexp"
	"strings"
)

var orderedStarterPattern = regexp.MustCompile(`^1[.)]$`)

type lineWrapper struct {
	maxWidth int
}

// wrap packs words greedily into lines no wider than maxWidth including the
// indent. A word that cannot fit anywhere gets a line of its own. A zero width
// keeps the whole fragment on one line.
func (wrapper lineWrapper) wrap(words []string, indentWidth int) []string {
	if len(words) == 0 {
		return nil
	}
	if wrapper.maxWidth == 0 {
		return []string{strings.Join(words, wordSeparator)}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for index, word := range words {
		wordWidth := runeWidth(word)
		overflows := indentWidth+lineWidth+len(wordSeparator)+wordWidth > wrapper.maxWidth
		if lineWidth > 0 && overflows && canBreakBefore(words, index) {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString(wordSeparator)
			lineWidth += len(wordSeparator)
		}
		line.WriteString(word)
		lineWidth += wordWidth
	}
	return append(lines, line.String())
}

// canBreakBefore rejects breaks that would turn a continuation line into a
// block construct or the end of the previous line into a hard line break.
func canBreakBefore(words []string, index int) bool {
	if index == 0 {
		return true
	}
	previous := words[index-1]
	if strings.HasSuffix(previous, `\`) && !strings.HasSuffix(previous, `\\`) {
		return false
	}
	return !startsBlock(words[index])
}

// startsBlock reports whether a line beginning with word would interrupt a
// paragraph.
func startsBlock(word string) bool {
	switch {
	case word == "-" || word == "+" || word == "*":
		return true
	case strings.HasPrefix(word, string(blockQuoteMarker)):
		return true
	case atxHeadingPattern.MatchString(word) || orderedStarterPattern.MatchString(word):
		return true
	case setextPattern.MatchString(word) || thematicBreakPattern.MatchString(word):
		return true
	case footnotePattern.MatchString(word):
		return true
	}
	if _, _, isFence := fenceOpening(word); isFence {
		return true
	}
	block, isHTML := detectHTMLBlock(word)
	return isHTML && block.interrupting
}

// reflowText turns the raw text of a Text span into sentence-per-line output.
// The first line carries no indent because the preceding markup already does.
func (engine *engine) reflowText(raw string, indent string) string {
	fragments := engine.splitter.split(engine.normalizer.tokenize(raw))
	indentWidth := runeWidth(indent)
	var output strings.Builder
	for _, fragment := range fragments {
		for lineIndex, line := range engine.wrapper.wrap(fragment, indentWidth) {
			if output.Len() > 0 {
				if lineIndex == 0 && startsBlock(fragment[0]) {
					output.WriteString(wordSeparator)
				} else {
					output.WriteByte(lineFeed)
					output.WriteString(indent)
				}
			}
			output.WriteString(line)
		}
	}
	return output.String()
}
