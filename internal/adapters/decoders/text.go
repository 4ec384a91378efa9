package decoders

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// maxLineSize bounds a single line of a text source.
const maxLineSize = 1 << 20

// errLineTooLong marks a line that was skipped for exceeding maxLineSize.
var errLineTooLong = fmt.Errorf("line exceeds %d bytes", maxLineSize)

// Text decodes plain-text files holding one "BODY - AUTHOR" quote per line.
type Text struct {
	extension
}

// NewText creates a text decoder.
func NewText() *Text {
	return &Text{extension: FormatText}
}

// Decode reads path line by line.
func (d *Text) Decode(ctx context.Context, path string) domain.DecodeResult {
	res := domain.DecodeResult{Path: path, Format: d.Format()}

	if err := ctx.Err(); err != nil {
		return res.Fail(unavailable(err))
	}

	f, err := os.Open(path)
	if err != nil {
		return res.Fail(unavailable(err))
	}
	defer f.Close()

	r := bufio.NewReader(textReader(f))

	for line := 1; ; line++ {
		raw, err := readLine(r)
		if errors.Is(err, io.EOF) {
			break
		}

		if errors.Is(err, errLineTooLong) {
			res.Report(domain.AtLine(domain.NewMalformedLineError("", err.Error()), line))
			continue
		}

		// Keep what was read before the failure.
		if err != nil {
			res.Report(unavailable(err))
			break
		}

		collect(&res, line, raw, domain.ParseLine)
	}

	return res
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed whole and reported as errLineTooLong.
func readLine(r *bufio.Reader) (string, error) {
	var (
		buf  []byte
		long bool
	)

	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", err
		}

		if !long && len(buf)+len(chunk) > maxLineSize {
			long, buf = true, nil
		}

		if !long {
			buf = append(buf, chunk...)
		}

		if !isPrefix {
			break
		}
	}

	if long {
		return "", errLineTooLong
	}

	return string(buf), nil
}
