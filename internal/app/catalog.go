package app

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// Catalog is an immutable snapshot of ingested quotes.
// A new catalog replaces the old one as a whole; readers never see a partial ingest.
type Catalog struct {
	generation  uint64
	builtAt     time.Time
	sources     int
	quotes      []domain.Quote
	diagnostics []domain.Diagnostic
}

// NewCatalog snapshots report. Quotes keep the report's input order.
func NewCatalog(report *domain.IngestReport, generation uint64, builtAt time.Time) *Catalog {
	c := &Catalog{generation: generation, builtAt: builtAt}
	if report == nil {
		return c
	}

	c.sources = len(report.Results)
	c.quotes = report.Quotes()
	c.diagnostics = report.Diagnostics()

	return c
}

// Generation increases by one with every published catalog. The initial empty catalog is 0.
func (c *Catalog) Generation() uint64 { return c.generation }

// BuiltAt is when the catalog was published.
func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Sources is the number of paths the catalog was built from.
func (c *Catalog) Sources() int { return c.sources }

// Len is the number of quotes.
func (c *Catalog) Len() int { return len(c.quotes) }

// All returns a copy of every quote.
func (c *Catalog) All() []domain.Quote {
	return slices.Clone(c.quotes)
}

// Page returns up to limit quotes starting at offset.
// Out-of-range offsets yield an empty page.
func (c *Catalog) Page(offset, limit int) []domain.Quote {
	if offset < 0 || limit <= 0 || offset >= len(c.quotes) {
		return []domain.Quote{}
	}

	end := min(offset+limit, len(c.quotes))

	return slices.Clone(c.quotes[offset:end])
}

// Random picks a quote uniformly. It fails with a not found error when the catalog is empty.
func (c *Catalog) Random() (domain.Quote, error) {
	return c.pick(rand.IntN)
}

func (c *Catalog) pick(intn func(int) int) (domain.Quote, error) {
	if len(c.quotes) == 0 {
		return domain.Quote{}, domain.NewNotFoundError("quote", "")
	}

	return c.quotes[intn(len(c.quotes))], nil
}

// Diagnostics returns a copy of the diagnostics reported while building the catalog.
func (c *Catalog) Diagnostics() []domain.Diagnostic {
	return slices.Clone(c.diagnostics)
}
