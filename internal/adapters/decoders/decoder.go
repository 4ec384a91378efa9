// Package decoders provides the file-format adapters that turn documents into quotes.
//
// Every decoder claims exactly one extension and is stateless:
//
//	txt   lines of "BODY - AUTHOR", UTF-8 with optional byte-order mark
//	docx  one quote per non-empty paragraph, enclosing quotes stripped
//	csv   header row with body and author columns
//	pdf   text obtained from an external extraction tool, one quote per line
package decoders

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/ports"
)

// Extensions claimed by the built-in decoders.
const (
	FormatText = "txt"
	FormatDocx = "docx"
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
)

// Default returns the built-in decoders in registration order.
func Default(extractor ports.TextExtractor) []ports.Decoder {
	return []ports.Decoder{
		NewText(),
		NewDocx(),
		NewPDF(extractor),
		NewCSV(),
	}
}

// Extension returns the substring after the last dot of the final path element.
// It returns "" when there is none.
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// extension implements the capability half of ports.Decoder.
type extension string

// Format returns the claimed extension.
func (e extension) Format() string {
	return string(e)
}

// CanHandle reports an exact, case-sensitive extension match.
func (e extension) CanHandle(path string) bool {
	return Extension(path) == string(e)
}

// lineParser converts one line of text into a quote.
type lineParser func(raw string) (domain.Quote, error)

// collect parses one numbered line into res. Blank lines are ignored and
// malformed ones are reported without aborting the decode.
func collect(res *domain.DecodeResult, line int, raw string, parse lineParser) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	q, err := parse(raw)
	if err != nil {
		res.Report(domain.AtLine(err, line))
		return
	}

	res.Add(q)
}

// unavailable marks err as a source-unavailable failure.
func unavailable(err error) error {
	if domain.IsSourceUnavailable(err) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}

// textReader decodes UTF-8 and drops a leading byte-order mark. UTF-16 input
// announced by its BOM is transcoded as well.
func textReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
