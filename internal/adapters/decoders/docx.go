package decoders

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

const (
	// docxMainPart is the main document part of a WordprocessingML package.
	docxMainPart = "word/document.xml"

	// wordNamespace is the WordprocessingML main namespace.
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// errMissingMainPart is returned for archives that are not Word documents.
var errMissingMainPart = errors.New(docxMainPart + " not found in archive")

// Docx decodes Word documents holding one quote per paragraph.
type Docx struct {
	extension
}

// NewDocx creates a docx decoder.
func NewDocx() *Docx {
	return &Docx{extension: FormatDocx}
}

// Decode parses each non-empty paragraph of path, stripping enclosing quotes.
func (d *Docx) Decode(ctx context.Context, path string) domain.DecodeResult {
	res := domain.DecodeResult{Path: path, Format: d.Format()}

	if err := ctx.Err(); err != nil {
		return res.Fail(unavailable(err))
	}

	paragraphs, err := readParagraphs(path)
	if err != nil {
		return res.Fail(unavailable(err))
	}

	for i, p := range paragraphs {
		collect(&res, i+1, p, domain.ParseQuotedLine)
	}

	return res
}

// readParagraphs returns the text of every w:p element in document order,
// including empty ones so positions match the document.
func readParagraphs(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer r.Close()

	var main *zip.File
	for _, f := range r.File {
		if f.Name == docxMainPart {
			main = f
			break
		}
	}

	if main == nil {
		return nil, errMissingMainPart
	}

	rc, err := main.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", docxMainPart, err)
	}
	defer rc.Close()

	return walkParagraphs(xml.NewDecoder(rc))
}

func walkParagraphs(decoder *xml.Decoder) ([]string, error) {
	var (
		paragraphs  []string
		current     strings.Builder
		inParagraph bool
		inText      bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return paragraphs, nil
		}

		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxMainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}

			switch t.Name.Local {
			case "txbxContent":
				// Text boxes hold their own paragraphs and are not part of the
				// enclosing paragraph's text.
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("parse %s: %w", docxMainPart, err)
				}
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "tab", "br", "cr":
				if inParagraph {
					current.WriteByte(' ')
				}
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}

			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
					inParagraph = false
				}
			}
		}
	}
}

func isWordElement(name xml.Name) bool {
	return name.Space == wordNamespace || name.Space == ""
}
