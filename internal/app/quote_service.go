// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// IngestRequest asks for a batch of paths to be decoded.
type IngestRequest struct {
	// Paths are relative to the service's data directory and must stay inside it.
	Paths []string

	// Publish replaces the live catalog with the result when the batch verifies.
	Publish bool
}

// IngestOutcome is the result of an ingest.
type IngestOutcome struct {
	Report     *domain.IngestReport
	Published  bool
	Generation uint64
}

// QuoteService serves quotes from the most recently published catalog and
// builds new catalogs through the registry.
type QuoteService struct {
	registry *Registry
	executor *Executor
	dataDir  string
	logger   *slog.Logger

	catalog atomic.Pointer[Catalog]

	// publishMu orders archive steps so generations increase monotonically.
	publishMu sync.Mutex

	now func() time.Time
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Registry *Registry

	// DataDir is the root that request paths are resolved against.
	DataDir string

	Logger *slog.Logger
}

// NewQuoteService creates a service with an empty catalog.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &QuoteService{
		registry: cfg.Registry,
		executor: NewExecutor(logger),
		dataDir:  cfg.DataDir,
		logger:   logger.With(slog.String("component", "app.QuoteService")),
		now:      time.Now,
	}
	s.catalog.Store(NewCatalog(nil, 0, s.now()))

	return s
}

// Catalog returns the live catalog.
func (s *QuoteService) Catalog() *Catalog {
	return s.catalog.Load()
}

// Load ingests paths and publishes the result. It is the startup step.
func (s *QuoteService) Load(ctx context.Context, paths []string) (*IngestOutcome, error) {
	return s.Ingest(ctx, IngestRequest{Paths: paths, Publish: true})
}

// Random returns a random quote from the live catalog.
func (s *QuoteService) Random(ctx context.Context) (domain.Quote, error) {
	q, err := s.Catalog().Random()
	if err != nil {
		s.logger.DebugContext(ctx, "no quotes to serve")
		return domain.Quote{}, err
	}

	return q, nil
}

// List returns up to limit quotes of the live catalog, plus the catalog they
// came from. offset resolves the start position against that catalog's
// generation so a page never mixes two catalogs.
func (s *QuoteService) List(
	_ context.Context, limit int, offset func(generation uint64) (int, error),
) ([]domain.Quote, *Catalog, error) {
	c := s.Catalog()

	start, err := offset(c.Generation())
	if err != nil {
		return nil, c, err
	}

	return c.Page(start, limit), c, nil
}

// Diagnostics returns the diagnostics of the live catalog and its generation.
func (s *QuoteService) Diagnostics(_ context.Context) ([]domain.Diagnostic, uint64) {
	c := s.Catalog()
	return c.Diagnostics(), c.Generation()
}

// Name implements ports.HealthChecker.
func (s *QuoteService) Name() string {
	return "catalog"
}

// Check reports unhealthy until a catalog has been published.
func (s *QuoteService) Check(_ context.Context) error {
	if s.Catalog().Generation() == 0 {
		return domain.NewUnavailableError("catalog", "no catalog published")
	}

	return nil
}

// Ingest decodes req.Paths and, when requested and the batch carries no
// fatal diagnostics, publishes the result as the new live catalog.
func (s *QuoteService) Ingest(ctx context.Context, req IngestRequest) (*IngestOutcome, error) {
	op := Operation[IngestRequest, *domain.IngestReport, *domain.IngestReport, *IngestOutcome]{
		Name:     "ingest",
		Validate: s.validateIngest,
		Perform: func(ctx context.Context, req IngestRequest) (*domain.IngestReport, error) {
			return s.registry.IngestAll(ctx, s.resolve(req.Paths)), nil
		},
		Verify: func(_ context.Context, _ IngestRequest, report *domain.IngestReport) (*domain.IngestReport, error) {
			if err := report.Err(); err != nil {
				return nil, err
			}

			return report, nil
		},
		Archive: func(ctx context.Context, req IngestRequest, report *domain.IngestReport) error {
			if req.Publish {
				s.publish(ctx, report)
			}

			return nil
		},
		Respond: func(_ context.Context, req IngestRequest, report *domain.IngestReport) (*IngestOutcome, error) {
			return &IngestOutcome{
				Report:     report,
				Published:  req.Publish,
				Generation: s.Catalog().Generation(),
			}, nil
		},
	}

	return Execute(ctx, s.executor, op, req)
}

func (s *QuoteService) validateIngest(_ context.Context, req IngestRequest) error {
	if len(req.Paths) == 0 {
		return domain.NewValidationError("paths", "at least one path is required")
	}

	for i, p := range req.Paths {
		if !filepath.IsLocal(p) {
			return domain.NewValidationErrorWithValue(
				fmt.Sprintf("paths[%d]", i), "must be a relative path inside the data directory", p)
		}
	}

	return nil
}

// RelativePath reports path relative to the data directory, or path itself
// when it lies outside it.
func (s *QuoteService) RelativePath(path string) string {
	rel, err := filepath.Rel(s.dataDir, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}

	return rel
}

func (s *QuoteService) resolve(paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = filepath.Join(s.dataDir, p)
	}

	return resolved
}

func (s *QuoteService) publish(ctx context.Context, report *domain.IngestReport) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	next := NewCatalog(report, s.Catalog().Generation()+1, s.now())
	s.catalog.Store(next)

	s.logger.InfoContext(ctx, "catalog published",
		slog.Uint64("generation", next.Generation()),
		slog.Int("quotes", next.Len()),
		slog.Int("sources", next.Sources()),
	)
}
