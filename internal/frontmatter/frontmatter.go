// Package frontmatter separates YAML front matter from Markdown documents and
// reads the configuration embedded in it.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Delimiter opens and closes a front matter block.
	Delimiter = "---"
	// EndDelimiter is the alternative YAML document end marker.
	EndDelimiter = "..."
	// ConfigurationKey names the front matter key holding TOML configuration.
	ConfigurationKey = "slw-toml"

	lineFeed = "\n"
)

// Split returns the front matter block, delimiters and final line break
// included, and the remaining body. Without a terminated block matter is empty.
func Split(document string) (string, string) {
	firstLineEnd := strings.Index(document, lineFeed)
	if firstLineEnd < 0 || strings.TrimSuffix(document[:firstLineEnd], "\r") != Delimiter {
		return "", document
	}
	cursor := firstLineEnd + 1
	for cursor <= len(document) {
		lineEnd := strings.Index(document[cursor:], lineFeed)
		next := len(document)
		line := document[cursor:]
		if lineEnd >= 0 {
			line = document[cursor : cursor+lineEnd]
			next = cursor + lineEnd + 1
		}
		trimmed := strings.TrimSuffix(line, "\r")
		if trimmed == Delimiter || trimmed == EndDelimiter {
			return document[:next], document[next:]
		}
		if lineEnd < 0 {
			break
		}
		cursor = next
	}
	return "", document
}

// Content strips the delimiters from a block returned by Split.
func Content(matter string) string {
	lines := strings.Split(strings.TrimRight(matter, "\r\n"), lineFeed)
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines[1:len(lines)-1], lineFeed)
}

// ConfigValue returns the string stored under ConfigurationKey, or an empty
// string when the key is absent.
func ConfigValue(matter string) (string, error) {
	content := Content(matter)
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	var values map[string]any
	if decodeError := yaml.Unmarshal([]byte(content), &values); decodeError != nil {
		return "", fmt.Errorf("decode front matter: %w", decodeError)
	}
	rawValue, found := values[ConfigurationKey]
	if !found || rawValue == nil {
		return "", nil
	}
	value, isString := rawValue.(string)
	if !isString {
		return "", fmt.Errorf("front matter key %s must hold a string, got %T", ConfigurationKey, rawValue)
	}
	return value, nil
}
