package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/mocks"
	"github.com/jsamuelsen/quote-ingest/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// funcDecoder claims one extension and decodes with fn.
type funcDecoder struct {
	format string
	fn     func(ctx context.Context, path string) domain.DecodeResult
}

func (d *funcDecoder) Format() string { return d.format }

func (d *funcDecoder) CanHandle(path string) bool {
	return strings.TrimPrefix(filepath.Ext(path), ".") == d.format
}

func (d *funcDecoder) Decode(ctx context.Context, path string) domain.DecodeResult {
	return d.fn(ctx, path)
}

// echoDecoder yields one quote whose body is the path.
func echoDecoder(format string, delay func(path string) time.Duration) *funcDecoder {
	return &funcDecoder{format: format, fn: func(_ context.Context, path string) domain.DecodeResult {
		if delay != nil {
			time.Sleep(delay(path))
		}

		res := domain.DecodeResult{Path: path, Format: format}
		res.Add(domain.Quote{Body: path, Author: format})

		return res
	}}
}

func newMockDecoder(t *testing.T, format string) *mocks.MockDecoder {
	t.Helper()

	d := mocks.NewMockDecoder(t)
	d.EXPECT().Format().Return(format).Maybe()
	d.EXPECT().CanHandle(mock.Anything).RunAndReturn(func(path string) bool {
		return strings.TrimPrefix(filepath.Ext(path), ".") == format
	}).Maybe()

	return d
}

func TestNewRegistry_Defaults(t *testing.T) {
	r := NewRegistry(nil, RegistryConfig{})

	assert.Equal(t, DefaultWorkers, r.workers)
	assert.NotNil(t, r.logger)
	assert.Empty(t, r.Formats())
}

func TestRegistry_Formats(t *testing.T) {
	r := NewRegistry([]ports.Decoder{
		echoDecoder("txt", nil),
		echoDecoder("docx", nil),
		echoDecoder("pdf", nil),
		echoDecoder("csv", nil),
	}, RegistryConfig{Logger: discardLogger()})

	assert.Equal(t, []string{"txt", "docx", "pdf", "csv"}, r.Formats())
}

func TestRegistry_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		setup     func(txt, csv *mocks.MockDecoder)
		wantFmt   string
		wantKinds []domain.DiagnosticKind
		wantCount int
	}{
		{
			name: "routes to claiming decoder",
			path: "/data/quotes.txt",
			setup: func(txt, _ *mocks.MockDecoder) {
				res := domain.DecodeResult{Path: "/data/quotes.txt", Format: "txt"}
				res.Add(domain.Quote{Body: "Chase the mailman", Author: "Skittle"})
				txt.EXPECT().Decode(mock.Anything, "/data/quotes.txt").Return(res).Once()
			},
			wantFmt:   "txt",
			wantCount: 1,
		},
		{
			name: "second decoder",
			path: "/data/quotes.csv",
			setup: func(_, csv *mocks.MockDecoder) {
				csv.EXPECT().Decode(mock.Anything, "/data/quotes.csv").
					Return(domain.DecodeResult{Path: "/data/quotes.csv", Format: "csv"}).Once()
			},
			wantFmt: "csv",
		},
		{
			name:      "unsupported extension",
			path:      "/data/quotes.doc",
			setup:     func(_, _ *mocks.MockDecoder) {},
			wantKinds: []domain.DiagnosticKind{domain.KindUnsupportedFormat},
		},
		{
			name:      "extension matching is case sensitive",
			path:      "/data/quotes.TXT",
			setup:     func(_, _ *mocks.MockDecoder) {},
			wantKinds: []domain.DiagnosticKind{domain.KindUnsupportedFormat},
		},
		{
			name:      "no extension",
			path:      "/data/README",
			setup:     func(_, _ *mocks.MockDecoder) {},
			wantKinds: []domain.DiagnosticKind{domain.KindUnsupportedFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txt := newMockDecoder(t, "txt")
			csv := newMockDecoder(t, "csv")
			tt.setup(txt, csv)

			r := NewRegistry([]ports.Decoder{txt, csv}, RegistryConfig{Logger: discardLogger()})

			res := r.Dispatch(context.Background(), tt.path)

			assert.Equal(t, tt.path, res.Path)
			assert.Equal(t, tt.wantFmt, res.Format)
			assert.Len(t, res.Quotes, tt.wantCount)
			assert.Equal(t, len(tt.wantKinds), len(res.Diagnostics))

			for i, d := range res.Diagnostics {
				assert.Equal(t, tt.wantKinds[i], d.Kind)
				assert.Equal(t, tt.path, d.Path)
			}
		})
	}
}

func TestRegistry_Dispatch_FirstClaimWins(t *testing.T) {
	first := &funcDecoder{format: "txt", fn: func(_ context.Context, path string) domain.DecodeResult {
		return domain.DecodeResult{Path: path, Format: "first"}
	}}
	second := newMockDecoder(t, "txt")

	r := NewRegistry([]ports.Decoder{first, second}, RegistryConfig{Logger: discardLogger()})

	res := r.Dispatch(context.Background(), "quotes.txt")

	assert.Equal(t, "first", res.Format)
}

func TestRegistry_Dispatch_Canceled(t *testing.T) {
	txt := newMockDecoder(t, "txt")
	r := NewRegistry([]ports.Decoder{txt}, RegistryConfig{Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Dispatch(ctx, "quotes.txt")

	assert.Equal(t, "txt", res.Format)
	assert.Empty(t, res.Quotes)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.KindSourceUnavailable, res.Diagnostics[0].Kind)
	assert.ErrorIs(t, res.Diagnostics[0].Err, context.Canceled)
}

func TestRegistry_IngestAll_PreservesInputOrder(t *testing.T) {
	paths := make([]string, 12)
	for i := range paths {
		paths[i] = fmt.Sprintf("/data/%02d.txt", i)
	}

	// Earlier paths finish last.
	delay := func(path string) time.Duration {
		var n int
		_, _ = fmt.Sscanf(filepath.Base(path), "%02d.txt", &n)
		return time.Duration(len(paths)-n) * time.Millisecond
	}

	r := NewRegistry([]ports.Decoder{echoDecoder("txt", delay)}, RegistryConfig{
		Workers: 4,
		Logger:  discardLogger(),
	})

	report := r.IngestAll(context.Background(), paths)

	require.Len(t, report.Results, len(paths))
	for i, res := range report.Results {
		assert.Equal(t, paths[i], res.Path)
	}

	quotes := report.Quotes()
	require.Len(t, quotes, len(paths))
	for i, q := range quotes {
		assert.Equal(t, paths[i], q.Body)
	}
}

func TestRegistry_IngestAll_BoundsWorkers(t *testing.T) {
	var inFlight, peak atomic.Int32

	dec := &funcDecoder{format: "txt", fn: func(_ context.Context, path string) domain.DecodeResult {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)

		return domain.DecodeResult{Path: path, Format: "txt"}
	}}

	r := NewRegistry([]ports.Decoder{dec}, RegistryConfig{Workers: 2, Logger: discardLogger()})

	paths := make([]string, 10)
	for i := range paths {
		paths[i] = fmt.Sprintf("%d.txt", i)
	}

	report := r.IngestAll(context.Background(), paths)

	assert.Len(t, report.Results, 10)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRegistry_IngestAll_MixedOutcomes(t *testing.T) {
	good := func(path string, quotes ...domain.Quote) domain.DecodeResult {
		res := domain.DecodeResult{Path: path, Format: "txt"}
		for _, q := range quotes {
			res.Add(q)
		}

		return res
	}

	txt := newMockDecoder(t, "txt")
	txt.EXPECT().Decode(mock.Anything, "a.txt").Return(good("a.txt", domain.Quote{Body: "A", Author: "Rex"}))
	txt.EXPECT().Decode(mock.Anything, "b.txt").RunAndReturn(func(_ context.Context, path string) domain.DecodeResult {
		res := good(path, domain.Quote{Body: "B", Author: "Rex"})
		res.Report(domain.AtLine(domain.NewMalformedLineError("oops", "no separator"), 2))

		return res
	})

	csv := newMockDecoder(t, "csv")
	csv.EXPECT().Decode(mock.Anything, "c.csv").RunAndReturn(func(_ context.Context, path string) domain.DecodeResult {
		res := domain.DecodeResult{Path: path, Format: "csv"}
		return res.Fail(domain.NewSchemaMismatchError("author"))
	})

	r := NewRegistry([]ports.Decoder{txt, csv}, RegistryConfig{Logger: discardLogger()})

	report := r.IngestAll(context.Background(), []string{"a.txt", "x.doc", "b.txt", "c.csv"})

	assert.Equal(t, []domain.Quote{{Body: "A", Author: "Rex"}, {Body: "B", Author: "Rex"}}, report.Quotes())

	var kinds []domain.DiagnosticKind
	for _, d := range report.Diagnostics() {
		kinds = append(kinds, d.Kind)
	}

	assert.Equal(t, []domain.DiagnosticKind{
		domain.KindUnsupportedFormat,
		domain.KindMalformedLine,
		domain.KindSchemaMismatch,
	}, kinds)

	err := report.Err()
	require.Error(t, err)
	assert.True(t, domain.IsSchemaMismatch(err))
	assert.Contains(t, err.Error(), "c.csv")
}

func TestRegistry_IngestAll_Empty(t *testing.T) {
	r := NewRegistry([]ports.Decoder{echoDecoder("txt", nil)}, RegistryConfig{Logger: discardLogger()})

	report := r.IngestAll(context.Background(), nil)

	assert.Empty(t, report.Results)
	assert.Empty(t, report.Quotes())
	assert.NoError(t, report.Err())
}

func TestRegistry_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewIngestMetrics(reg)

	txt := &funcDecoder{format: "txt", fn: func(_ context.Context, path string) domain.DecodeResult {
		res := domain.DecodeResult{Path: path, Format: "txt"}
		res.Add(domain.Quote{Body: "Chase the mailman", Author: "Skittle"})
		res.Add(domain.Quote{Body: "Be loyal", Author: "Rex"})
		res.Report(domain.NewMalformedLineError("x", "no separator"))

		return res
	}}

	r := NewRegistry([]ports.Decoder{txt}, RegistryConfig{Metrics: metrics, Logger: discardLogger()})
	r.IngestAll(context.Background(), []string{"a.txt", "b.txt", "c.doc"})

	assert.InDelta(t, 4, testutil.ToFloat64(metrics.records.WithLabelValues("txt")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.records.WithLabelValues(unclaimedFormat)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.diagnostics.WithLabelValues(string(domain.KindMalformedLine))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.diagnostics.WithLabelValues(string(domain.KindUnsupportedFormat))), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.duration))
}

func TestRegistry_LogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	txt := &funcDecoder{format: "txt", fn: func(_ context.Context, path string) domain.DecodeResult {
		res := domain.DecodeResult{Path: path, Format: "txt"}
		res.Report(domain.AtLine(domain.NewMalformedLineError("oops", "no separator"), 3))

		return res
	}}
	csv := &funcDecoder{format: "csv", fn: func(_ context.Context, path string) domain.DecodeResult {
		res := domain.DecodeResult{Path: path, Format: "csv"}
		return res.Fail(domain.NewSchemaMismatchError("body"))
	}}

	r := NewRegistry([]ports.Decoder{txt, csv}, RegistryConfig{Workers: 1, Logger: logger})
	r.IngestAll(context.Background(), []string{"a.txt", "b.csv"})

	out := buf.String()
	assert.Contains(t, out, `"msg":"skipping malformed record"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"line":3`)
	assert.Contains(t, out, `"msg":"source rejected"`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"msg":"ingest finished"`)
}
