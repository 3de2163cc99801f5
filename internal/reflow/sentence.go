package reflow

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// SuppressionSet holds words after which an end marker does not end a sentence.
type SuppressionSet struct {
	words         map[string]struct{}
	caseSensitive bool
}

// NewSuppressionSet builds a set from words minus removals.
// Unless caseSensitive is set, membership ignores case.
func NewSuppressionSet(words []string, removals []string, caseSensitive bool) *SuppressionSet {
	set := &SuppressionSet{words: make(map[string]struct{}, len(words)), caseSensitive: caseSensitive}
	for _, word := range words {
		trimmed := strings.TrimSpace(word)
		if trimmed == "" {
			continue
		}
		set.words[set.key(trimmed)] = struct{}{}
	}
	for _, removal := range removals {
		delete(set.words, set.key(strings.TrimSpace(removal)))
	}
	return set
}

func (set *SuppressionSet) key(word string) string {
	if set.caseSensitive {
		return word
	}
	return cases.Fold().String(word)
}

// Contains reports whether word is a member of the set.
func (set *SuppressionSet) Contains(word string) bool {
	if set == nil || len(set.words) == 0 {
		return false
	}
	_, found := set.words[set.key(word)]
	return found
}

// Len returns the number of words in the set.
func (set *SuppressionSet) Len() int {
	if set == nil {
		return 0
	}
	return len(set.words)
}

type sentenceSplitter struct {
	endMarkers           string
	suppressions         *SuppressionSet
	breakMultipleMarkers bool
	breakStartMarker     bool
}

func newSentenceSplitter(options Options) sentenceSplitter {
	return sentenceSplitter{
		endMarkers:           options.EndMarkers,
		suppressions:         options.Suppressions,
		breakMultipleMarkers: options.Features.Has(FeatureBreakMultipleMarkers),
		breakStartMarker:     options.Features.Has(FeatureBreakStartMarker),
	}
}

// split groups tokens into sentence fragments. Kept line breaks always end a
// fragment; a word ends one when it closes a sentence.
func (splitter sentenceSplitter) split(tokens []token) [][]string {
	var fragments [][]string
	var current []string
	atLineStart := true
	for _, item := range tokens {
		if item.lineBreak {
			if len(current) > 0 {
				fragments = append(fragments, current)
				current = nil
			}
			atLineStart = true
			continue
		}
		current = append(current, item.text)
		if splitter.endsSentence(item.text, atLineStart) {
			fragments = append(fragments, current)
			current = nil
		}
		atLineStart = false
	}
	if len(current) > 0 {
		fragments = append(fragments, current)
	}
	return fragments
}

func (splitter sentenceSplitter) isEndMarker(character rune) bool {
	return strings.ContainsRune(splitter.endMarkers, character)
}

func (splitter sentenceSplitter) endsSentence(word string, atLineStart bool) bool {
	lastMarker, lastWidth := utf8.DecodeLastRuneInString(word)
	if !splitter.isEndMarker(lastMarker) {
		return false
	}
	head := word[:len(word)-lastWidth]
	if head == "" {
		return !atLineStart || splitter.breakStartMarker
	}
	previous, _ := utf8.DecodeLastRuneInString(head)
	if splitter.isEndMarker(previous) && !splitter.breakMultipleMarkers {
		return false
	}
	return !splitter.isSuppressed(word, head)
}

// isSuppressed checks every suffix of word that starts at a word boundary, with
// and without its final end marker.
func (splitter sentenceSplitter) isSuppressed(word string, head string) bool {
	if splitter.suppressions.Len() == 0 {
		return false
	}
	previous := rune(0)
	for offset, character := range head {
		if offset == 0 || !isAlphanumeric(previous) {
			if splitter.suppressions.Contains(word[offset:]) || splitter.suppressions.Contains(head[offset:]) {
				return true
			}
		}
		previous = character
	}
	return false
}

func isAlphanumeric(character rune) bool {
	return unicode.IsLetter(character) || unicode.IsDigit(character)
}
