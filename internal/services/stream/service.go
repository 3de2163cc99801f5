package stream

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/slw/internal/types"
)

// ErrNilChannel is returned when no event channel is provided.
var ErrNilChannel = errors.New("stream: event channel is nil")

// FileProcessor formats a single document.
type FileProcessor interface {
	ProcessFile(ctx context.Context, document types.Document) (types.FileResult, error)
}

// FormatOptions configures StreamFormat.
type FormatOptions struct {
	Documents []types.Document
	// Jobs bounds the number of documents processed concurrently. Zero uses one worker per CPU.
	Jobs      int
	Processor FileProcessor
}

type emitter struct {
	ctx context.Context
	out chan<- Event
}

func newEmitter(ctx context.Context, out chan<- Event) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return ErrNilChannel
	}
	event.Version = SchemaVersion
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

func (e *emitter) warn(path, message string) error {
	trimmed := strings.TrimRight(message, "\n")
	if trimmed == "" {
		return nil
	}
	return e.send(Event{
		Kind:    EventKindWarning,
		Path:    path,
		Message: &LogEvent{Level: "warning", Message: trimmed},
	})
}

type summaryTracker struct {
	mutex   sync.Mutex
	files   int
	changed int
	failed  int
	errs    error
}

func (tracker *summaryTracker) addResult(result types.FileResult) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	tracker.files++
	if result.Changed {
		tracker.changed++
	}
}

func (tracker *summaryTracker) addFailure(err error) {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	tracker.files++
	tracker.failed++
	tracker.errs = multierr.Append(tracker.errs, err)
}

func (tracker *summaryTracker) summary() *SummaryEvent {
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	return &SummaryEvent{Files: tracker.files, Changed: tracker.changed, Failed: tracker.failed}
}

// StreamFormat processes every document and emits one file or error event per
// document, framed by start, summary and done events. A failing document does not
// stop the others. The returned error aggregates every per-document failure.
func StreamFormat(ctx context.Context, opts FormatOptions, out chan<- Event) error {
	if opts.Processor == nil {
		return fmt.Errorf("stream: processor is nil")
	}
	emitter := newEmitter(ctx, out)
	if err := emitter.send(Event{Kind: EventKindStart}); err != nil {
		return err
	}

	tracker := &summaryTracker{}
	group, groupCtx := errgroup.WithContext(emitter.ctx)
	group.SetLimit(workerCount(opts.Jobs))

	for _, document := range opts.Documents {
		document := document
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			result, processErr := opts.Processor.ProcessFile(groupCtx, document)
			if processErr != nil {
				tracker.addFailure(processErr)
				return emitter.send(Event{
					Kind: EventKindError,
					Path: document.Path,
					Err:  &ErrorEvent{Index: document.Index, Message: processErr.Error()},
				})
			}
			tracker.addResult(result)
			for _, warning := range result.Warnings {
				if err := emitter.warn(document.Path, warning); err != nil {
					return err
				}
			}
			return emitter.send(Event{
				Kind: EventKindFile,
				Path: document.Path,
				File: &FileEvent{
					Index:     document.Index,
					Path:      document.Path,
					Changed:   result.Changed,
					Written:   result.Written,
					Warnings:  result.Warnings,
					Original:  result.Original,
					Processed: result.Processed,
				},
			})
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	if err := emitter.send(Event{Kind: EventKindSummary, Summary: tracker.summary()}); err != nil {
		return err
	}
	if err := emitter.send(Event{Kind: EventKindDone}); err != nil {
		return err
	}
	tracker.mutex.Lock()
	defer tracker.mutex.Unlock()
	return tracker.errs
}

func workerCount(jobs int) int {
	if jobs > 0 {
		return jobs
	}
	return runtime.NumCPU()
}
