// Package metrics exposes Prometheus collectors for the spider service.
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
	spiderRecordsTotal      *prometheus.CounterVec
	spiderTasksTotal        *prometheus.CounterVec
	spiderPagesTotal        prometheus.Counter
	spiderActiveWorkers     prometheus.Gauge
	spiderBatchDurationSecs prometheus.Histogram
	spiderBatchesTotal      *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		spiderRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spider_records_total",
				Help: "Total number of records emitted, labeled by keyword.",
			},
			[]string{"keyword"},
		)

		spiderTasksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spider_tasks_total",
				Help: "Total number of finished tasks, labeled by terminal status.",
			},
			[]string{"status"},
		)

		spiderPagesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spider_pages_total",
				Help: "Total number of search API pages fetched and decoded.",
			},
		)

		spiderActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "spider_active_workers",
				Help: "Number of scrape workers currently running.",
			},
		)

		spiderBatchDurationSecs = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spider_batch_duration_seconds",
				Help:    "Wall-clock duration of a full crawl batch.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		)

		spiderBatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spider_batches_total",
				Help: "Total number of crawl batches, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEmitted counts one record pushed onto the result queue.
func RecordEmitted(keyword string) {
	if spiderRecordsTotal != nil {
		spiderRecordsTotal.WithLabelValues(keyword).Inc()
	}
}

// TaskFinished counts one task reaching a terminal status.
func TaskFinished(status string) {
	if spiderTasksTotal != nil {
		spiderTasksTotal.WithLabelValues(status).Inc()
	}
}

// PageFetched counts one successfully decoded search page.
func PageFetched() {
	if spiderPagesTotal != nil {
		spiderPagesTotal.Inc()
	}
}

// WorkerStarted bumps the active worker gauge.
func WorkerStarted() {
	if spiderActiveWorkers != nil {
		spiderActiveWorkers.Inc()
	}
}

// WorkerStopped drops the active worker gauge.
func WorkerStopped() {
	if spiderActiveWorkers != nil {
		spiderActiveWorkers.Dec()
	}
}

// BatchFinished records one batch outcome and its duration.
func BatchFinished(outcome string, elapsed time.Duration) {
	if spiderBatchesTotal != nil {
		spiderBatchesTotal.WithLabelValues(outcome).Inc()
	}
	if spiderBatchDurationSecs != nil {
		spiderBatchDurationSecs.Observe(elapsed.Seconds())
	}
}
