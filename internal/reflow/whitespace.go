package reflow

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	noBreakSpace       = '\u00a0'
	figureSpace        = '\u2007'
	narrowNoBreakSpace = '\u202f'
	zeroWidthNoBreak   = '\ufeff'

	wordSeparator = " "
	lineFeed      = '\n'
)

// token is one unit of a Text span: a word or a line break that must be kept.
type token struct {
	text      string
	lineBreak bool
}

// IsProtectedSpace reports whether character is a space that never breaks a line.
func IsProtectedSpace(character rune) bool {
	switch character {
	case noBreakSpace, figureSpace, narrowNoBreakSpace, zeroWidthNoBreak:
		return true
	default:
		return false
	}
}

type normalizer struct {
	keepLinebreaks  bool
	breakProtection bool
}

func newNormalizer(options Options) normalizer {
	return normalizer{
		keepLinebreaks:  options.KeepWhitespace.Has(KeepLinebreaks),
		breakProtection: options.Features.Has(FeatureModifyNbsp),
	}
}

func (normalization normalizer) isCollapsible(character rune) bool {
	if IsProtectedSpace(character) {
		return normalization.breakProtection
	}
	return unicode.IsSpace(character)
}

// tokenize collapses every run of ordinary whitespace into a word boundary.
// A run keeps a line break when linebreaks are kept or when the newline directly
// follows a protected space.
func (normalization normalizer) tokenize(text string) []token {
	var tokens []token
	var word strings.Builder
	previous := rune(0)
	inRun := false
	runKeepsBreak := false

	flushRun := func() {
		if runKeepsBreak && len(tokens) > 0 && !tokens[len(tokens)-1].lineBreak {
			tokens = append(tokens, token{lineBreak: true})
		}
		inRun = false
		runKeepsBreak = false
	}

	for _, character := range text {
		if normalization.isCollapsible(character) {
			if word.Len() > 0 {
				tokens = append(tokens, token{text: word.String()})
				word.Reset()
			}
			inRun = true
			if character == lineFeed && (normalization.keepLinebreaks || IsProtectedSpace(previous)) {
				runKeepsBreak = true
			}
			previous = character
			continue
		}
		if inRun {
			flushRun()
		}
		word.WriteRune(character)
		previous = character
	}
	if word.Len() > 0 {
		tokens = append(tokens, token{text: word.String()})
	}
	return glueProtectedTokens(trimBreaks(tokens))
}

func trimBreaks(tokens []token) []token {
	for len(tokens) > 0 && tokens[len(tokens)-1].lineBreak {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// glueProtectedTokens attaches words made only of protected spaces to the next
// word, or to the previous one at the end of a line.
func glueProtectedTokens(tokens []token) []token {
	glued := make([]token, 0, len(tokens))
	for index := 0; index < len(tokens); index++ {
		current := tokens[index]
		if current.lineBreak || !isProtectedOnly(current.text) {
			glued = append(glued, current)
			continue
		}
		if index+1 < len(tokens) && !tokens[index+1].lineBreak {
			tokens[index+1].text = current.text + wordSeparator + tokens[index+1].text
			continue
		}
		if len(glued) > 0 && !glued[len(glued)-1].lineBreak {
			glued[len(glued)-1].text += wordSeparator + current.text
			continue
		}
		glued = append(glued, current)
	}
	return glued
}

func isProtectedOnly(word string) bool {
	for _, character := range word {
		if !IsProtectedSpace(character) {
			return false
		}
	}
	return word != ""
}

func runeWidth(text string) int {
	return utf8.RuneCountInString(text)
}
