// Package stream runs document formatting on a bounded worker pool and reports
// progress as a sequence of events.
package stream

import "time"

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart   EventKind = "start"
	EventKindFile    EventKind = "file"
	EventKindSummary EventKind = "summary"
	EventKindWarning EventKind = "warning"
	EventKindError   EventKind = "error"
	EventKindDone    EventKind = "done"
)

type Event struct {
	Version   int       `json:"version"`
	Kind      EventKind `json:"kind"`
	Path      string    `json:"path,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty"`

	File    *FileEvent    `json:"file,omitempty"`
	Summary *SummaryEvent `json:"summary,omitempty"`
	Message *LogEvent     `json:"message,omitempty"`
	Err     *ErrorEvent   `json:"error,omitempty"`
}

// FileEvent carries the outcome of one document. Index is the discovery position,
// events themselves arrive in completion order.
type FileEvent struct {
	Index     int      `json:"index"`
	Path      string   `json:"path"`
	Changed   bool     `json:"changed"`
	Written   bool     `json:"written"`
	Warnings  []string `json:"warnings,omitempty"`
	Original  string   `json:"-"`
	Processed string   `json:"-"`
}

type SummaryEvent struct {
	Files   int `json:"files"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

type LogEvent struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}
