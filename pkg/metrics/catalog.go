package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records latency and volume for the filter read path.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	results  *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog filter metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_filter_duration_seconds",
		Help:    "Duration of catalog filter queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})
	results := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_filter_results",
		Help:    "Number of products matched before pagination.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"variant"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_filter_failures",
		Help: "Failed catalog filter queries.",
	}, []string{"variant"})
	reg.MustRegister(duration, results, failures)
	return &CatalogMetrics{
		duration: duration,
		results:  results,
		failures: failures,
	}
}

// ObserveFilter records one completed filter query.
func (c *CatalogMetrics) ObserveFilter(variant string, took time.Duration, matched int) {
	if c == nil || c.duration == nil {
		return
	}
	label := normalizeLabel(variant)
	c.duration.WithLabelValues(label).Observe(took.Seconds())
	c.results.WithLabelValues(label).Observe(float64(matched))
}

// IncFailure increments the failure counter for the variant.
func (c *CatalogMetrics) IncFailure(variant string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(variant)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
