package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
	"github.com/jsamuelsen/quote-ingest/internal/ports"
)

// DefaultWorkers is the number of paths decoded concurrently when none is configured.
const DefaultWorkers = 4

// Registry dispatches paths to the first decoder that claims them.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	decoders []ports.Decoder
	workers  int
	metrics  *IngestMetrics
	logger   *slog.Logger
}

// RegistryConfig contains configuration for the registry.
type RegistryConfig struct {
	// Workers bounds how many paths IngestAll decodes at once.
	Workers int

	// Metrics is optional.
	Metrics *IngestMetrics

	// Logger is used when the request context carries none.
	Logger *slog.Logger
}

// NewRegistry creates a registry over decoders. Registration order decides
// which decoder wins when more than one claims a path.
func NewRegistry(decoders []ports.Decoder, cfg RegistryConfig) *Registry {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		decoders: append([]ports.Decoder(nil), decoders...),
		workers:  workers,
		metrics:  cfg.Metrics,
		logger:   logger.With(slog.String("component", "app.Registry")),
	}
}

// Formats returns the claimed extensions in registration order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, d := range r.decoders {
		formats = append(formats, d.Format())
	}

	return formats
}

// Lookup returns the decoder that claims path.
func (r *Registry) Lookup(path string) (ports.Decoder, bool) {
	for _, d := range r.decoders {
		if d.CanHandle(path) {
			return d, true
		}
	}

	return nil, false
}

// Dispatch decodes path with the first decoder that claims it.
// A path no decoder claims yields an empty result with an unsupported-format diagnostic.
func (r *Registry) Dispatch(ctx context.Context, path string) domain.DecodeResult {
	start := time.Now()
	res := r.dispatch(ctx, path)

	r.metrics.Observe(res, time.Since(start))
	r.logResult(ctx, res)

	return res
}

func (r *Registry) dispatch(ctx context.Context, path string) domain.DecodeResult {
	d, ok := r.Lookup(path)

	res := domain.DecodeResult{Path: path}
	if ok {
		res.Format = d.Format()
	}

	switch {
	case ctx.Err() != nil:
		return res.Fail(fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, ctx.Err()))
	case !ok:
		return res.Fail(fmt.Errorf("%w: no decoder for %q", domain.ErrUnsupportedFormat, filepath.Ext(path)))
	}

	return d.Decode(ctx, path)
}

// IngestAll decodes every path with bounded concurrency. The report holds one
// result per path in input order, and its quotes concatenate in that order.
func (r *Registry) IngestAll(ctx context.Context, paths []string) *domain.IngestReport {
	start := time.Now()

	results := MapLimit(ctx, r.workers, paths, r.Dispatch)
	report := &domain.IngestReport{Results: results}

	r.loggerFrom(ctx).InfoContext(ctx, "ingest finished",
		slog.Int("paths", len(paths)),
		slog.Int("quotes", len(report.Quotes())),
		slog.Int("diagnostics", len(report.Diagnostics())),
		slog.Duration("duration", time.Since(start)),
	)

	return report
}

func (r *Registry) logResult(ctx context.Context, res domain.DecodeResult) {
	logger := r.loggerFrom(ctx).With(
		slog.String("path", res.Path),
		slog.String("format", res.Format),
	)

	for _, d := range res.Diagnostics {
		attrs := []any{
			slog.String("kind", string(d.Kind)),
			slog.Any("error", d.Err),
		}
		if d.Line > 0 {
			attrs = append(attrs, slog.Int("line", d.Line))
		}

		switch {
		case d.Fatal():
			logger.ErrorContext(ctx, "source rejected", attrs...)
		case d.Kind == domain.KindMalformedLine:
			logger.WarnContext(ctx, "skipping malformed record", attrs...)
		default:
			logger.WarnContext(ctx, "source skipped", attrs...)
		}
	}

	logger.DebugContext(ctx, "source decoded", slog.Int("quotes", len(res.Quotes)))
}

// loggerFrom prefers the request-scoped logger.
func (r *Registry) loggerFrom(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != logging.Default() {
		return logger
	}

	return r.logger
}
