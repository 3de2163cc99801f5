package stream_test

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"go.uber.org/multierr"

	"github.com/temirov/slw/internal/services/stream"
	"github.com/temirov/slw/internal/types"
)

var errStubFailure = errors.New("stub failure")

type stubProcessor struct {
	failing map[string]bool
	active  atomic.Int32
	peak    atomic.Int32
}

func (processor *stubProcessor) ProcessFile(_ context.Context, document types.Document) (types.FileResult, error) {
	current := processor.active.Add(1)
	defer processor.active.Add(-1)
	for {
		peak := processor.peak.Load()
		if current <= peak || processor.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if processor.failing[document.Path] {
		return types.FileResult{}, errStubFailure
	}
	return types.FileResult{
		Index:     document.Index,
		Path:      document.Path,
		Original:  "a",
		Processed: "b",
		Changed:   document.Index%2 == 0,
		Warnings:  []string{"line 1: recovered"},
	}, nil
}

func TestStreamFormatEmitsEventPerDocument(t *testing.T) {
	documents := []types.Document{{Index: 0, Path: "a.md"}, {Index: 1, Path: "b.md"}, {Index: 2, Path: "c.md"}, {Index: 3, Path: "d.md"}}
	processor := &stubProcessor{failing: map[string]bool{"c.md": true}}

	var streamErr error
	events := collectEvents(t, func(ch chan<- stream.Event) error {
		streamErr = stream.StreamFormat(context.Background(), stream.FormatOptions{Documents: documents, Jobs: 2, Processor: processor}, ch)
		return nil
	})

	if !errors.Is(streamErr, errStubFailure) || len(multierr.Errors(streamErr)) != 1 {
		t.Fatalf("expected one aggregated failure, got %v", streamErr)
	}
	if peak := processor.peak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent workers, got %d", peak)
	}
	if events[0].Kind != stream.EventKindStart {
		t.Fatalf("expected first event to be start, got %v", events[0].Kind)
	}
	lastEvents := events[len(events)-2:]
	if lastEvents[0].Kind != stream.EventKindSummary || lastEvents[1].Kind != stream.EventKindDone {
		t.Fatalf("expected summary followed by done at end, got %v %v", lastEvents[0].Kind, lastEvents[1].Kind)
	}
	summary := lastEvents[0].Summary
	if summary.Files != 4 || summary.Changed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	var fileIndexes []int
	var warnings int
	var sawError bool
	for _, event := range events {
		switch event.Kind {
		case stream.EventKindFile:
			fileIndexes = append(fileIndexes, event.File.Index)
			if event.Version != stream.SchemaVersion || event.EmittedAt.IsZero() {
				t.Fatalf("event metadata not stamped: %+v", event)
			}
		case stream.EventKindWarning:
			warnings++
		case stream.EventKindError:
			sawError = true
			if event.Err.Index != 2 || event.Path != "c.md" {
				t.Fatalf("unexpected error event %+v", event.Err)
			}
		}
	}
	sort.Ints(fileIndexes)
	if len(fileIndexes) != 3 || fileIndexes[0] != 0 || fileIndexes[1] != 1 || fileIndexes[2] != 3 {
		t.Fatalf("unexpected file indexes %v", fileIndexes)
	}
	if warnings != 3 {
		t.Fatalf("expected 3 warnings, got %d", warnings)
	}
	if !sawError {
		t.Fatalf("expected error event")
	}
}

func TestStreamFormatRequiresChannel(t *testing.T) {
	err := stream.StreamFormat(context.Background(), stream.FormatOptions{Processor: &stubProcessor{}}, nil)
	if !errors.Is(err, stream.ErrNilChannel) {
		t.Fatalf("expected nil channel error, got %v", err)
	}
}

func collectEvents(t *testing.T, producer func(chan<- stream.Event) error) []stream.Event {
	t.Helper()
	events := make(chan stream.Event, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(events)
		errCh <- producer(events)
	}()
	var collected []stream.Event
	for event := range events {
		collected = append(collected, event)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("producer error: %v", err)
	}
	return collected
}
