package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
)

// unclaimedFormat labels paths that no decoder claimed.
const unclaimedFormat = "none"

// IngestMetrics counts what decoding produced.
type IngestMetrics struct {
	records     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewIngestMetrics registers the ingestion collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &IngestMetrics{
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quote_ingest_records_total",
			Help: "Quotes decoded, by source format.",
		}, []string{"format"}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quote_ingest_diagnostics_total",
			Help: "Diagnostics reported while decoding, by kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quote_ingest_decode_seconds",
			Help:    "Time spent decoding one source, by format.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"format"}),
	}
}

// Observe records one decode.
func (m *IngestMetrics) Observe(res domain.DecodeResult, elapsed time.Duration) {
	if m == nil {
		return
	}

	format := res.Format
	if format == "" {
		format = unclaimedFormat
	}

	m.records.WithLabelValues(format).Add(float64(len(res.Quotes)))
	m.duration.WithLabelValues(format).Observe(elapsed.Seconds())

	for _, d := range res.Diagnostics {
		m.diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
}
