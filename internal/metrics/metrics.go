// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchAttemptsTotal   *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	keyRotationsTotal    prometheus.Counter
	journalsTotal        *prometheus.CounterVec
	catalogPagesTotal    *prometheus.CounterVec
	backoffDelaysSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journalcrawler_fetch_attempts_total",
				Help: "Total fetch attempts, labeled by status class.",
			},
			[]string{"class"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "journalcrawler_fetch_duration_seconds",
				Help:    "Histogram of per-attempt fetch latencies, labeled by status class.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"class"},
		)

		keyRotationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "journalcrawler_key_rotations_total",
				Help: "Total access-key rotations triggered by 401/403 responses.",
			},
		)

		journalsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journalcrawler_journals_total",
				Help: "Total journals processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		catalogPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journalcrawler_catalog_pages_total",
				Help: "Total catalog listing pages fetched, labeled by result.",
			},
			[]string{"result"},
		)

		backoffDelaysSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "journalcrawler_backoff_delays_seconds",
				Help:    "Histogram of backoff wait durations between fetch attempts.",
				Buckets: []float64{0.5, 1, 2, 4, 8, 16},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetchAttempt records one fetch attempt and its latency.
func ObserveFetchAttempt(class string, duration time.Duration) {
	fetchAttemptsTotal.WithLabelValues(class).Inc()
	fetchDurationSeconds.WithLabelValues(class).Observe(duration.Seconds())
}

// ObserveKeyRotation increments the rotation counter.
func ObserveKeyRotation() {
	keyRotationsTotal.Inc()
}

// ObserveJournal increments the journal counter for the given outcome.
func ObserveJournal(outcome string) {
	journalsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCatalogPage increments the catalog page counter.
func ObserveCatalogPage(result string) {
	catalogPagesTotal.WithLabelValues(result).Inc()
}

// ObserveBackoffDelay records the duration of one backoff wait.
func ObserveBackoffDelay(duration time.Duration) {
	backoffDelaysSeconds.Observe(duration.Seconds())
}
