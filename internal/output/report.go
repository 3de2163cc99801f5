package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/slw/internal/services/stream"
	"github.com/temirov/slw/internal/types"
	"github.com/temirov/slw/internal/utils"
)

const (
	stateUnchanged    = "U"
	stateChanged      = "C"
	stateLineFormat   = "%s:%s\n"
	unknownReportText = "unknown report %q"
)

type jsonReportLine struct {
	Path     string   `json:"path"`
	Changed  bool     `json:"changed"`
	Written  bool     `json:"written"`
	Warnings []string `json:"warnings,omitempty"`
}

type reportRenderer struct {
	stdout           io.Writer
	logger           *zap.Logger
	report           string
	workingDirectory string
	files            []*stream.FileEvent
}

// NewReportRenderer builds a renderer for report. Warnings and errors are logged as
// they arrive. File reports are written on Flush in discovery order. Paths are shown
// relative to workingDirectory when it is set.
func NewReportRenderer(stdout io.Writer, logger *zap.Logger, report string, workingDirectory string) (StreamRenderer, error) {
	switch report {
	case types.ReportNone, types.ReportChanged, types.ReportState, types.ReportDiff, types.ReportJSON:
	default:
		return nil, fmt.Errorf(unknownReportText, report)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportRenderer{stdout: stdout, logger: logger, report: report, workingDirectory: workingDirectory}, nil
}

func (renderer *reportRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindWarning:
		if event.Message != nil {
			renderer.logger.Warn(event.Message.Message, zap.String("path", renderer.displayPath(event.Path)))
		}
	case stream.EventKindError:
		if event.Err != nil {
			renderer.logger.Error(event.Err.Message)
		}
	case stream.EventKindFile:
		if event.File != nil {
			renderer.logger.Debug("processed document", zap.String("path", renderer.displayPath(event.File.Path)), zap.Bool("changed", event.File.Changed))
			copied := *event.File
			renderer.files = append(renderer.files, &copied)
		}
	case stream.EventKindSummary:
		if event.Summary != nil {
			renderer.logger.Info("finished", zap.Int("files", event.Summary.Files), zap.Int("changed", event.Summary.Changed), zap.Int("failed", event.Summary.Failed))
		}
	}
	return nil
}

func (renderer *reportRenderer) Flush() error {
	sort.SliceStable(renderer.files, func(left, right int) bool {
		return renderer.files[left].Index < renderer.files[right].Index
	})
	for _, file := range renderer.files {
		if err := renderer.writeFile(file); err != nil {
			return err
		}
	}
	renderer.files = nil
	return nil
}

func (renderer *reportRenderer) writeFile(file *stream.FileEvent) error {
	if renderer.stdout == nil {
		return nil
	}
	path := renderer.displayPath(file.Path)
	switch renderer.report {
	case types.ReportChanged:
		if file.Changed {
			_, err := fmt.Fprintln(renderer.stdout, path)
			return err
		}
	case types.ReportState:
		state := stateUnchanged
		if file.Changed {
			state = stateChanged
		}
		_, err := fmt.Fprintf(renderer.stdout, stateLineFormat, state, path)
		return err
	case types.ReportDiff:
		diff, diffErr := UnifiedDiff(file.Original, file.Processed, path)
		if diffErr != nil {
			return diffErr
		}
		_, err := io.WriteString(renderer.stdout, diff)
		return err
	case types.ReportJSON:
		encoded, encodeErr := json.Marshal(jsonReportLine{Path: path, Changed: file.Changed, Written: file.Written, Warnings: file.Warnings})
		if encodeErr != nil {
			return encodeErr
		}
		_, err := fmt.Fprintln(renderer.stdout, string(encoded))
		return err
	}
	return nil
}

func (renderer *reportRenderer) displayPath(path string) string {
	if renderer.workingDirectory == "" || path == "" || path == types.StdinPath {
		return path
	}
	return utils.RelativePathOrSelf(path, renderer.workingDirectory)
}
