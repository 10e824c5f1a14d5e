// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birdcast_fetches_total",
			Help: "Total number of region page fetches, labeled by result.",
		},
		[]string{"result"},
	)

	recordsScrapedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "birdcast_records_scraped_total",
			Help: "Total number of scrape records collected across runs.",
		},
	)

	datasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "birdcast_dataset_rows",
			Help: "Row count of the persisted dataset after the last merge.",
		},
		[]string{"dataset"},
	)

	batchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "birdcast_batch_duration_seconds",
			Help:    "Histogram of full scrape batch durations.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// Fetch result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ObserveFetch increments the fetch counter for the given result.
func ObserveFetch(result string) {
	fetchesTotal.WithLabelValues(result).Inc()
}

// AddRecordsScraped counts records collected by a run.
func AddRecordsScraped(n int) {
	recordsScrapedTotal.Add(float64(n))
}

// SetDatasetRows records the post-merge row count for a dataset file.
func SetDatasetRows(dataset string, n int) {
	datasetRows.WithLabelValues(dataset).Set(float64(n))
}

// ObserveBatchDuration records how long a full scrape batch took.
func ObserveBatchDuration(d time.Duration) {
	batchDurationSeconds.Observe(d.Seconds())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
