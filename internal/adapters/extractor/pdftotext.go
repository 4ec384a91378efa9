// Package extractor runs the external text extraction tool used for pdf sources.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-ingest/internal/adapters/extractor"

	// DefaultBinary is the tool looked up on PATH when none is configured.
	DefaultBinary = "pdftotext"

	// DefaultTimeout bounds a single extraction when none is configured.
	DefaultTimeout = 10 * time.Second

	// stderrTail is how much of the tool's stderr is kept for error messages.
	stderrTail = 512

	// waitDelay bounds how long Wait blocks on pipes after the process is killed.
	waitDelay = time.Second
)

// Config configures a Runner.
type Config struct {
	// Binary is the executable name or path. Defaults to DefaultBinary.
	Binary string

	// Timeout bounds each run. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Breaker configures when repeated tool failures stop further runs.
	Breaker BreakerConfig

	// Logger is an optional logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// Runner extracts text by running "<binary> -layout <path> -" and capturing stdout.
// It implements ports.TextExtractor and ports.HealthChecker.
type Runner struct {
	binary  string
	timeout time.Duration
	breaker *Breaker
	logger  *slog.Logger

	tracer   trace.Tracer
	duration metric.Float64Histogram
	runs     metric.Int64Counter
}

// New creates a Runner.
func New(cfg *Config) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "extractor.Runner"),
		slog.String("tool", binary),
	)

	breaker := NewBreaker(cfg.Breaker)
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("extraction circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"quote_ingest.extract.duration",
		metric.WithDescription("Duration of external text extraction runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	runs, err := meter.Int64Counter(
		"quote_ingest.extract.total",
		metric.WithDescription("Total number of external text extraction runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run counter: %w", err)
	}

	return &Runner{
		binary:   binary,
		timeout:  timeout,
		breaker:  breaker,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
		runs:     runs,
	}, nil
}

// Extract runs the tool on path and returns its stdout.
// Failures are returned as *domain.ExtractionError.
func (r *Runner) Extract(ctx context.Context, path string) ([]byte, error) {
	logger := logging.FromContext(ctx).With(
		slog.String("tool", r.binary),
		slog.String("path", path),
	)

	if !r.breaker.Allow() {
		r.record(ctx, domain.ExtractionCircuitOpen, 0)
		logger.Warn("extraction blocked by circuit breaker")

		return nil, &domain.ExtractionError{Tool: r.binary, Path: path, Reason: domain.ExtractionCircuitOpen}
	}

	ctx, span := r.tracer.Start(ctx, "extract "+r.binary,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("extractor.tool", r.binary),
			attribute.String("extractor.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := r.run(ctx, path)
	elapsed := time.Since(start)

	if err != nil {
		var xerr *domain.ExtractionError
		if errors.As(err, &xerr) {
			r.settle(xerr.Reason)
			r.record(ctx, xerr.Reason, elapsed)
		}

		span.SetStatus(codes.Error, err.Error())
		logger.Warn("extraction failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)

		return nil, err
	}

	r.breaker.Success()
	r.record(ctx, "ok", elapsed)
	logger.Debug("extraction completed",
		slog.Duration("duration", elapsed),
		slog.Int("bytes", len(out)),
	)

	return out, nil
}

func (r *Runner) run(ctx context.Context, path string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrTail}

	cmd := exec.CommandContext(runCtx, r.binary, "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	xerr := &domain.ExtractionError{
		Tool:   r.binary,
		Path:   path,
		Stderr: strings.TrimSpace(stderr.String()),
		Cause:  err,
	}

	var exitErr *exec.ExitError

	switch {
	case ctx.Err() != nil:
		xerr.Reason = domain.ExtractionCanceled
		xerr.Cause = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		xerr.Reason = domain.ExtractionTimeout
		xerr.Cause = fmt.Errorf("exceeded %s: %w", r.timeout, runCtx.Err())
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		xerr.Reason = domain.ExtractionNotFound
	case errors.As(err, &exitErr):
		xerr.Reason = domain.ExtractionExitStatus
		xerr.ExitCode = exitErr.ExitCode()
	default:
		xerr.Reason = domain.ExtractionExitStatus
		xerr.ExitCode = -1
	}

	return nil, xerr
}

// settle updates the breaker for a failed run. A non-zero exit means the tool
// ran and rejected the document, so only a missing or hung tool counts against it.
func (r *Runner) settle(reason domain.ExtractionReason) {
	switch reason {
	case domain.ExtractionNotFound, domain.ExtractionTimeout:
		r.breaker.Failure()
	case domain.ExtractionExitStatus:
		r.breaker.Success()
	default:
		r.breaker.Release()
	}
}

func (r *Runner) record(ctx context.Context, outcome domain.ExtractionReason, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("extractor.tool", r.binary),
		attribute.String("outcome", string(outcome)),
	)

	r.runs.Add(ctx, 1, attrs)
	if elapsed > 0 {
		r.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// Name implements ports.HealthChecker.
func (r *Runner) Name() string {
	return r.binary
}

// Check implements ports.HealthChecker. The tool must be resolvable and the
// breaker must not be open.
func (r *Runner) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := exec.LookPath(r.binary); err != nil {
		return domain.NewUnavailableError(r.binary, err.Error())
	}

	if r.breaker.State() == StateOpen {
		return domain.NewUnavailableError(r.binary, "circuit breaker open")
	}

	return nil
}

// CircuitState returns the current state of the circuit breaker.
func (r *Runner) CircuitState() State {
	return r.breaker.State()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}

	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.ToValidUTF8(string(t.buf), "")
}
