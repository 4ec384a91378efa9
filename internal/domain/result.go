package domain

import (
	"errors"
	"fmt"
)

// DiagnosticKind classifies an ingestion problem.
type DiagnosticKind string

const (
	KindUnsupportedFormat DiagnosticKind = "unsupported_format"
	KindSourceUnavailable DiagnosticKind = "source_unavailable"
	KindMalformedLine     DiagnosticKind = "malformed_line"
	KindSchemaMismatch    DiagnosticKind = "schema_mismatch"
)

// KindOf returns the diagnostic kind matching err.
// Unknown errors are reported as source unavailable.
func KindOf(err error) DiagnosticKind {
	switch {
	case IsUnsupportedFormat(err):
		return KindUnsupportedFormat
	case IsMalformedLine(err):
		return KindMalformedLine
	case IsSchemaMismatch(err):
		return KindSchemaMismatch
	default:
		return KindSourceUnavailable
	}
}

// Diagnostic is a non-fatal report attached to a decode.
type Diagnostic struct {
	Path    string         `json:"path"`
	Kind    DiagnosticKind `json:"kind"`
	Line    int            `json:"line,omitempty"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
}

// NewDiagnostic builds a diagnostic for path from err.
func NewDiagnostic(path string, err error) Diagnostic {
	d := Diagnostic{
		Path:    path,
		Kind:    KindOf(err),
		Message: err.Error(),
		Err:     err,
	}

	var mle *MalformedLineError
	if errors.As(err, &mle) {
		d.Line = mle.Line
	}

	return d
}

// Fatal reports whether the diagnostic belongs to a class that must be surfaced
// as a failure rather than logged and skipped.
func (d Diagnostic) Fatal() bool {
	return d.Kind == KindSchemaMismatch
}

// String implements fmt.Stringer.
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", d.Path, d.Line, d.Kind, d.Message)
	}

	return fmt.Sprintf("%s: %s: %s", d.Path, d.Kind, d.Message)
}

// DecodeResult is the outcome of decoding one path.
// Quotes holds whatever could be parsed, even when Diagnostics is non-empty.
type DecodeResult struct {
	Path        string       `json:"path"`
	Format      string       `json:"format,omitempty"`
	Quotes      []Quote      `json:"quotes"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Add appends a successfully parsed quote.
func (r *DecodeResult) Add(q Quote) {
	r.Quotes = append(r.Quotes, q)
}

// Report records a diagnostic for err against the result's path.
func (r *DecodeResult) Report(err error) {
	r.Diagnostics = append(r.Diagnostics, NewDiagnostic(r.Path, err))
}

// Fail discards any parsed quotes and records err.
// Used when the whole source is unusable.
func (r *DecodeResult) Fail(err error) DecodeResult {
	r.Quotes = nil
	r.Report(err)

	return *r
}

// IngestReport aggregates the results of decoding several paths.
type IngestReport struct {
	// Results holds one entry per input path, in input order.
	Results []DecodeResult `json:"results"`
}

// Quotes concatenates the parsed quotes of every path in input order.
func (r *IngestReport) Quotes() []Quote {
	n := 0
	for _, res := range r.Results {
		n += len(res.Quotes)
	}

	quotes := make([]Quote, 0, n)
	for _, res := range r.Results {
		quotes = append(quotes, res.Quotes...)
	}

	return quotes
}

// Diagnostics flattens the diagnostics of every path in input order.
func (r *IngestReport) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	for _, res := range r.Results {
		diags = append(diags, res.Diagnostics...)
	}

	return diags
}

// Err joins the fatal-class diagnostics. It returns nil when the batch only
// produced recoverable diagnostics.
func (r *IngestReport) Err() error {
	var errs []error

	for _, d := range r.Diagnostics() {
		if d.Fatal() {
			errs = append(errs, fmt.Errorf("%s: %w", d.Path, d.Err))
		}
	}

	return errors.Join(errs...)
}
