// Package metrics содержит Prometheus-метрики обработки лент.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedsProcessed считает обработанные ленты по итогу (ok, fetch_error, parse_error, save_error).
	FeedsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rssreader",
			Name:      "feeds_processed_total",
			Help:      "Total number of processed feeds by outcome",
		},
		[]string{"feed", "status"},
	)

	// ParseErrors считает ошибки разбора по виду (structural, value_format, io).
	ParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rssreader",
			Name:      "parse_errors_total",
			Help:      "Total number of feed parse errors by kind",
		},
		[]string{"kind"},
	)

	// EntriesParsed распределение количества записей в ленте.
	EntriesParsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rssreader",
			Name:      "entries_per_feed",
			Help:      "Distribution of entries found per parsed feed",
			Buckets:   []float64{0, 1, 5, 10, 30, 50, 100, 250},
		},
		[]string{"feed"},
	)

	ProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rssreader",
			Name:      "feed_process_duration_seconds",
			Help:      "Duration of fetch, parse and save of one feed",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rssreader",
			Name:      "worker_cycle_duration_seconds",
			Help:      "Duration of one worker cycle over all feeds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// RecordFeed фиксирует итог обработки одной ленты.
func RecordFeed(feed, status string, seconds float64) {
	FeedsProcessed.WithLabelValues(feed, status).Inc()
	ProcessDuration.WithLabelValues(feed).Observe(seconds)
}

// RecordEntries фиксирует количество записей в разобранной ленте.
func RecordEntries(feed string, count int) {
	EntriesParsed.WithLabelValues(feed).Observe(float64(count))
}

func RecordParseError(kind string) {
	ParseErrors.WithLabelValues(kind).Inc()
}
