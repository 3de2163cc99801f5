// Package lang provides the built-in suppression word lists. A suppression
// word is an abbreviation after which an end marker does not end a sentence.
package lang

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// None disables the built-in word lists.
const None = "none"

const (
	wordsDirectory     = "words"
	wordsFileExtension = ".txt"
	commentPrefix      = "#"
)

// ErrUnknownLanguage is returned for language codes without a word list.
var ErrUnknownLanguage = errors.New("unknown language")

//go:embed words/*.txt
var wordFiles embed.FS

// Supported returns the language codes with a built-in list, sorted.
func Supported() []string {
	entries, readError := wordFiles.ReadDir(wordsDirectory)
	if readError != nil {
		return nil
	}
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		codes = append(codes, strings.TrimSuffix(entry.Name(), wordsFileExtension))
	}
	sort.Strings(codes)
	return codes
}

// Words returns the union of the word lists named in the space-separated
// languages value. The value "none" contributes no words.
func Words(languages string) ([]string, error) {
	var words []string
	for _, code := range strings.Fields(languages) {
		if code == None {
			continue
		}
		content, readError := wordFiles.ReadFile(path.Join(wordsDirectory, code+wordsFileExtension))
		if readError != nil {
			return nil, fmt.Errorf("%w %q, supported: %s %s", ErrUnknownLanguage, code, strings.Join(Supported(), " "), None)
		}
		scanner := bufio.NewScanner(strings.NewReader(string(content)))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, commentPrefix) {
				continue
			}
			words = append(words, word)
		}
	}
	return words, nil
}
