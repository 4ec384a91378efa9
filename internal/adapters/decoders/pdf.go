package decoders

import (
	"context"
	"os"
	"strings"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/ports"
)

// PDF decodes documents whose text is produced by an external extraction tool.
type PDF struct {
	extension
	extractor ports.TextExtractor
}

// NewPDF creates a pdf decoder backed by extractor.
// It panics if extractor is nil.
func NewPDF(extractor ports.TextExtractor) *PDF {
	if extractor == nil {
		panic("decoders: NewPDF requires a TextExtractor")
	}

	return &PDF{extension: FormatPDF, extractor: extractor}
}

// Decode extracts the text of path and parses it line by line.
// The segment after the final newline is the tool's page-break sentinel and is dropped.
func (d *PDF) Decode(ctx context.Context, path string) domain.DecodeResult {
	res := domain.DecodeResult{Path: path, Format: d.Format()}

	if _, err := os.Stat(path); err != nil {
		return res.Fail(unavailable(err))
	}

	out, err := d.extractor.Extract(ctx, path)
	if err != nil {
		return res.Fail(unavailable(err))
	}

	text := strings.ToValidUTF8(string(out), "\uFFFD")

	lines := strings.Split(text, "\n")
	lines = lines[:len(lines)-1]

	for i, line := range lines {
		collect(&res, i+1, strings.ReplaceAll(line, "\f", ""), domain.ParseLine)
	}

	return res
}
