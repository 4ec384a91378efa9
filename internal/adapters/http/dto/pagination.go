package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultLimit is the page size when the request names none.
	DefaultLimit = 20

	// MaxLimit caps the page size.
	MaxLimit = 100
)

var (
	// ErrInvalidCursor is returned when a cursor does not decode.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrStaleCursor is returned when a cursor was issued for a catalog
	// generation that has since been replaced.
	ErrStaleCursor = errors.New("stale cursor")
)

// PaginationRequest holds the pagination query parameters.
type PaginationRequest struct {
	// Cursor is the opaque NextCursor of a previous page.
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"  validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// Offset returns where the page starts. Without a cursor the page starts at
// zero; a cursor from another generation is rejected with ErrStaleCursor.
func (p *PaginationRequest) Offset(generation uint64) (int, error) {
	if p.Cursor == "" {
		return 0, nil
	}

	cur, err := DecodeCursor(p.Cursor)
	if err != nil {
		return 0, err
	}

	if cur.Generation != generation {
		return 0, fmt.Errorf("%w: issued for generation %d, catalog is at %d",
			ErrStaleCursor, cur.Generation, generation)
	}

	return cur.Offset, nil
}

// Cursor is a position in one catalog generation.
type Cursor struct {
	Offset     int    `json:"o"`
	Generation uint64 `json:"g"`
}

// EncodeCursor encodes c as URL-safe base64 JSON.
func EncodeCursor(c Cursor) string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(encoded string) (Cursor, error) {
	var c Cursor

	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return c, ErrInvalidCursor
	}

	if err := json.Unmarshal(b, &c); err != nil || c.Offset < 0 {
		return Cursor{}, ErrInvalidCursor
	}

	return c, nil
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
	Total      int    `json:"total"`
}

// NewPage builds the page that starts at offset of a listing of total items.
func NewPage[T any](items []T, offset, total int, generation uint64) Page[T] {
	if items == nil {
		items = []T{}
	}

	next := offset + len(items)
	p := Page[T]{Items: items, HasMore: next < total, Total: total}

	if p.HasMore {
		p.NextCursor = EncodeCursor(Cursor{Offset: next, Generation: generation})
	}

	return p
}
