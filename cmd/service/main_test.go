package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/platform/config"
)

func testConfig(t *testing.T, files map[string]string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return &config.Config{
		Ingest: config.IngestConfig{
			DataDir: dir,
			Workers: 2,
			Extractor: config.ExtractorConfig{
				Binary:  "pdftotext",
				Timeout: config.DefaultExtractorTimeout,
				CircuitBreaker: config.CircuitBreakerConfig{
					MaxFailures:   config.DefaultExtractorMaxFailures,
					Timeout:       config.DefaultExtractorCooldown,
					HalfOpenLimit: config.DefaultExtractorHalfOpenLimit,
				},
			},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewQuoteService_RegistersHealthChecks(t *testing.T) {
	_, registry, err := newQuoteService(testConfig(t, nil), discardLogger(), prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, []string{"pdftotext", "catalog"}, registry.Names())
}

func TestLoadSources(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		sources []string
		wantErr func(error) bool
		wantLen int
		wantGen uint64
	}{
		{
			name:    "publishes startup catalog",
			files:   map[string]string{"a.txt": "Sit - Fido\nno separator\n"},
			sources: []string{"a.txt", "missing.txt"},
			wantLen: 1,
			wantGen: 1,
		},
		{
			name:    "no sources leaves catalog empty",
			wantGen: 0,
		},
		{
			name:    "schema mismatch stops startup",
			files:   map[string]string{"a.csv": "quote,who\nSit,Fido\n"},
			sources: []string{"a.csv"},
			wantErr: domain.IsSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, err := newQuoteService(testConfig(t, tt.files), discardLogger(), prometheus.NewRegistry())
			require.NoError(t, err)

			err = loadSources(context.Background(), discardLogger(), service, tt.sources)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				assert.Equal(t, uint64(0), service.Catalog().Generation())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, service.Catalog().Len())
			assert.Equal(t, tt.wantGen, service.Catalog().Generation())
		})
	}
}

func TestNewQuoteService_MetricsOnGivenRegistry(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.txt": "Sit - Fido\nBe loyal - Rex\n"})

	// Two services side by side must not collide on registration.
	for range 2 {
		reg := prometheus.NewRegistry()

		service, _, err := newQuoteService(cfg, discardLogger(), reg)
		require.NoError(t, err)

		require.NoError(t, loadSources(context.Background(), discardLogger(), service, []string{"a.txt"}))

		n, err := testutil.GatherAndCount(reg, "quote_ingest_records_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
}
