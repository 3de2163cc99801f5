package reflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when the resolved options cannot be used.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidEncoding is returned when a document is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid encoding")
)

const (
	configurationErrorFormat = "%w: %s"
	encodingErrorFormat      = "%w: invalid UTF-8 at byte offset %d"
)

// WarningKind classifies non-fatal problems detected while formatting.
type WarningKind string

const (
	// WarningMalformedInput marks constructs that were recovered locally.
	WarningMalformedInput WarningKind = "malformed-input"
	// WarningDuplicateDefinition marks link definitions dropped during collation.
	WarningDuplicateDefinition WarningKind = "duplicate-definition"
	// WarningDroppedTitle marks outsourced links whose title differs from the reused definition.
	WarningDroppedTitle WarningKind = "dropped-title"
)

// Warning describes a recovered problem at a one-based line of the formatted body.
type Warning struct {
	Kind    WarningKind
	Line    int
	Message string
}

func (warning Warning) String() string {
	return fmt.Sprintf("line %d: %s", warning.Line, warning.Message)
}

func newConfigurationError(reason string) error {
	return fmt.Errorf(configurationErrorFormat, ErrInvalidConfiguration, reason)
}
