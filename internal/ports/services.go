// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter on anything that blocks on I/O
//   - Return domain types, never infrastructure types
//   - Recoverable failures travel as domain diagnostics, not errors
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// Decoder extracts quotes from one kind of file.
// Implementations are stateless and safe for concurrent use.
//
// Example usage in application layer:
//
//	for _, d := range decoders {
//	    if d.CanHandle(path) {
//	        return d.Decode(ctx, path)
//	    }
//	}
type Decoder interface {
	// Format returns the file extension this decoder claims, without the dot.
	Format() string

	// CanHandle reports whether path carries this decoder's extension.
	// It never touches the file system.
	CanHandle(path string) bool

	// Decode extracts every parseable quote from path.
	// It never fails: unreadable sources and bad records are reported as
	// diagnostics on the returned result.
	Decode(ctx context.Context, path string) domain.DecodeResult
}

// TextExtractor obtains the plain text of a binary document.
// The production adapter shells out to an external tool; tests substitute a stub.
type TextExtractor interface {
	// Extract returns the layout-preserving text of the document at path.
	// Failures are returned as *domain.ExtractionError.
	Extract(ctx context.Context, path string) ([]byte, error)
}
