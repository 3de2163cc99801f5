// Package output renders formatting events as reports.
package output

import (
	"github.com/temirov/slw/internal/services/stream"
)

// StreamRenderer consumes events as they arrive and writes the report on Flush.
type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}
