// Package metrics exposes Prometheus collectors for lookups, yt-dlp fetches,
// and indexing passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every ytmeta collector. It is separate from the default
// registry so embedding programs do not see ytmeta series unless they mount
// Handler.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Label cardinality is bounded: no paths, names, or ids in labels.
var (
	// LookupsTotal counts metadata lookups by media kind and outcome.
	LookupsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ytmeta_lookups_total",
		Help: "Total metadata lookups, by media kind and result (hit/miss/error).",
	}, []string{"kind", "result"})

	// FetchTotal counts yt-dlp invocations by operation and outcome.
	FetchTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ytmeta_fetch_total",
		Help: "Total yt-dlp invocations, by operation and result.",
	}, []string{"operation", "result"})

	// IndexItemsUpdatedTotal counts season and episode writes.
	IndexItemsUpdatedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ytmeta_index_items_updated_total",
		Help: "Total library items re-indexed, by item kind (season/episode).",
	}, []string{"kind"})

	// IndexFailuresTotal counts per-item persistence failures.
	IndexFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "ytmeta_index_failures_total",
		Help: "Total library items whose new index could not be persisted.",
	})

	// IndexPassSeconds observes indexing pass durations.
	IndexPassSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "ytmeta_index_pass_seconds",
		Help:    "Duration of indexing passes.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// IndexProgress reports the percentage of the running pass.
	IndexProgress = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ytmeta_index_progress_percent",
		Help: "Progress of the current indexing pass (0-100).",
	})
)

// RecordLookup increments the lookup counter.
func RecordLookup(kind, result string) {
	LookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordFetch increments the yt-dlp invocation counter.
func RecordFetch(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	FetchTotal.WithLabelValues(operation, result).Inc()
}

// RecordItemUpdated increments the re-index counter for kind.
func RecordItemUpdated(kind string) {
	IndexItemsUpdatedTotal.WithLabelValues(kind).Inc()
}

// RecordItemFailed increments the persistence failure counter.
func RecordItemFailed() {
	IndexFailuresTotal.Inc()
}

// ObservePass records a finished indexing pass.
func ObservePass(d time.Duration) {
	IndexPassSeconds.Observe(d.Seconds())
}

// SetProgress publishes the running pass percentage.
func SetProgress(percent float64) {
	IndexProgress.Set(percent)
}

// Handler serves Registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
