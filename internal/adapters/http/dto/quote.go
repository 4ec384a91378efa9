package dto

import (
	"strings"
	"time"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// MaxIngestPaths bounds a single ingest request.
const MaxIngestPaths = 64

// QuoteResponse is one quote.
type QuoteResponse struct {
	Body   string `json:"body"`
	Author string `json:"author"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Body: q.Body, Author: q.Author}
}

// NewQuoteResponses converts a slice of domain quotes.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// QuoteListResponse is a page of the live catalog.
type QuoteListResponse struct {
	Page[QuoteResponse]

	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"builtAt"`
}

// DiagnosticResponse is one decode problem.
type DiagnosticResponse struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// NewDiagnosticResponse converts d, reporting its path through rel. Occurrences
// of the path inside the message are rewritten the same way.
func NewDiagnosticResponse(d domain.Diagnostic, rel func(string) string) DiagnosticResponse {
	path := rel(d.Path)

	message := d.Message
	if d.Path != "" && path != d.Path {
		message = strings.ReplaceAll(message, d.Path, path)
	}

	return DiagnosticResponse{
		Path:    path,
		Kind:    string(d.Kind),
		Line:    d.Line,
		Message: message,
	}
}

// NewDiagnosticResponses converts diags, reporting paths through rel.
func NewDiagnosticResponses(diags []domain.Diagnostic, rel func(string) string) []DiagnosticResponse {
	out := make([]DiagnosticResponse, len(diags))
	for i, d := range diags {
		out[i] = NewDiagnosticResponse(d, rel)
	}

	return out
}

// DiagnosticsResponse lists the diagnostics of the live catalog.
type DiagnosticsResponse struct {
	Generation  uint64               `json:"generation"`
	Diagnostics []DiagnosticResponse `json:"diagnostics"`
}

// IngestRequest asks for files under the data directory to be decoded.
type IngestRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,max=64,dive,notblank,localpath"`

	// Publish replaces the live catalog when the batch verifies.
	// A false value is a dry run.
	Publish bool `json:"publish"`
}

// SourceResponse is the outcome for one requested path.
type SourceResponse struct {
	Path        string               `json:"path"`
	Format      string               `json:"format,omitempty"`
	Quotes      int                  `json:"quotes"`
	Diagnostics []DiagnosticResponse `json:"diagnostics"`
}

// IngestResponse reports an ingest.
type IngestResponse struct {
	Published  bool             `json:"published"`
	Generation uint64           `json:"generation"`
	Quotes     int              `json:"quotes"`
	Sources    []SourceResponse `json:"sources"`
}

// NewIngestResponse builds the response for report. Results come back in
// request order so each is labeled with the path the caller sent.
func NewIngestResponse(req IngestRequest, report *domain.IngestReport, published bool, generation uint64) IngestResponse {
	resp := IngestResponse{
		Published:  published,
		Generation: generation,
		Sources:    make([]SourceResponse, len(report.Results)),
	}

	for i, res := range report.Results {
		path := res.Path
		if i < len(req.Paths) {
			path = req.Paths[i]
		}

		label := func(string) string { return path }

		resp.Sources[i] = SourceResponse{
			Path:        path,
			Format:      res.Format,
			Quotes:      len(res.Quotes),
			Diagnostics: NewDiagnosticResponses(res.Diagnostics, label),
		}
		resp.Quotes += len(res.Quotes)
	}

	return resp
}
