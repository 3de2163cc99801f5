// Package types defines the data structures shared by the slw packages.
package types

const (
	ModeFormat = "format"
	ModeCheck  = "check"
	ModeBoth   = "both"

	ReportNone    = "none"
	ReportChanged = "changed"
	ReportState   = "state"
	ReportDiff    = "diff"
	ReportJSON    = "json"

	// DefaultExtension selects the documents found while walking directories.
	DefaultExtension = ".md"
	// StdinPath names documents read from standard input in reports.
	StdinPath = "-"
)

// SupportedModes lists the accepted --mode values.
func SupportedModes() []string {
	return []string{ModeFormat, ModeCheck, ModeBoth}
}

// SupportedReports lists the accepted --report values.
func SupportedReports() []string {
	return []string{ReportNone, ReportChanged, ReportState, ReportDiff, ReportJSON}
}

// WritesFiles reports whether mode rewrites changed documents in place.
func WritesFiles(mode string) bool {
	return mode == ModeFormat || mode == ModeBoth
}

// FailsOnChange reports whether a changed document makes the run fail in mode.
func FailsOnChange(mode string) bool {
	return mode == ModeCheck || mode == ModeBoth
}

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// Document is one discovered input. Index preserves discovery order across workers.
type Document struct {
	Index int
	Path  string
}

// FileResult is the outcome of formatting one document.
type FileResult struct {
	Index     int
	Path      string
	Original  string
	Processed string
	Changed   bool
	Written   bool
	Warnings  []string
}
