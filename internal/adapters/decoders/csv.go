package decoders

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// Required tabular columns.
const (
	ColumnBody   = "body"
	ColumnAuthor = "author"
)

// CSV decodes comma-separated tables with body and author columns.
// Extra columns are ignored.
type CSV struct {
	extension
}

// NewCSV creates a csv decoder.
func NewCSV() *CSV {
	return &CSV{extension: FormatCSV}
}

// Decode reads the header row, then one quote per record.
func (d *CSV) Decode(ctx context.Context, path string) domain.DecodeResult {
	res := domain.DecodeResult{Path: path, Format: d.Format()}

	if err := ctx.Err(); err != nil {
		return res.Fail(unavailable(err))
	}

	f, err := os.Open(path)
	if err != nil {
		return res.Fail(unavailable(err))
	}
	defer f.Close()

	r := csv.NewReader(textReader(f))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return res.Fail(domain.NewSchemaMismatchError(ColumnBody, ColumnAuthor))
	}

	if err != nil {
		return res.Fail(unavailable(err))
	}

	bodyIdx, authorIdx, err := columnIndexes(header)
	if err != nil {
		return res.Fail(err)
	}

	width := max(bodyIdx, authorIdx) + 1

	for row := 2; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		// The reader resumes at the next record after a parse error.
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Report(domain.AtLine(domain.NewMalformedLineError("", parseErr.Err.Error()), row))
			continue
		}

		if err != nil {
			res.Report(unavailable(err))
			break
		}

		if len(record) < width {
			res.Report(domain.AtLine(
				domain.NewMalformedLineError(strings.Join(record, ","), "missing fields"), row))

			continue
		}

		q, err := domain.NewQuote(record[bodyIdx], record[authorIdx])
		if err != nil {
			res.Report(domain.AtLine(err, row))
			continue
		}

		res.Add(q)
	}

	return res
}

// columnIndexes locates the body and author columns in header.
func columnIndexes(header []string) (bodyIdx, authorIdx int, err error) {
	bodyIdx, authorIdx = -1, -1

	for i, name := range header {
		switch strings.TrimSpace(name) {
		case ColumnBody:
			if bodyIdx < 0 {
				bodyIdx = i
			}
		case ColumnAuthor:
			if authorIdx < 0 {
				authorIdx = i
			}
		}
	}

	var missing []string
	if bodyIdx < 0 {
		missing = append(missing, ColumnBody)
	}

	if authorIdx < 0 {
		missing = append(missing, ColumnAuthor)
	}

	if len(missing) > 0 {
		return 0, 0, domain.NewSchemaMismatchError(missing...)
	}

	return bodyIdx, authorIdx, nil
}
