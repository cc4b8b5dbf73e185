// Package metrics exposes Prometheus collectors for searches, favourites and
// drag-and-drop transfers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "havenrise"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	searches            prometheus.Counter
	searchResults       prometheus.Histogram
	favouriteMutations  *prometheus.CounterVec
	favouritesSize      prometheus.Gauge
	drops               *prometheus.CounterVec
	catalogLoadFailures prometheus.Counter
	catalogSize         prometheus.Gauge
}

// New registers the collectors, plus the Go runtime and process collectors,
// on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Catalog searches evaluated.",
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of properties returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		favouriteMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favourite_mutations_total",
			Help:      "Changes to the favourites set by operation.",
		}, []string{"op"}),
		favouritesSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "favourites",
			Help:      "Properties currently in the favourites set.",
		}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_drops_total",
			Help:      "Drag-and-drop drops by channel and result.",
		}, []string{"channel", "result"}),
		catalogLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_load_failures_total",
			Help:      "Failed catalog loads.",
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_properties",
			Help:      "Properties in the loaded catalog.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searches,
		m.searchResults,
		m.favouriteMutations,
		m.favouritesSize,
		m.drops,
		m.catalogLoadFailures,
		m.catalogSize,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SearchEvaluated records one search and its result size.
func (m *Metrics) SearchEvaluated(results int) {
	m.searches.Inc()
	m.searchResults.Observe(float64(results))
}

// FavouriteMutated implements favourites.Observer.
func (m *Metrics) FavouriteMutated(op string, size int) {
	m.favouriteMutations.WithLabelValues(op).Inc()
	m.favouritesSize.Set(float64(size))
}

// FavouritesRestored sets the size gauge after a restore.
func (m *Metrics) FavouritesRestored(size int) {
	m.favouritesSize.Set(float64(size))
}

// Dropped implements transfer.Observer.
func (m *Metrics) Dropped(channel, result string) {
	m.drops.WithLabelValues(channel, result).Inc()
}

// CatalogLoaded records the outcome of the catalog load.
func (m *Metrics) CatalogLoaded(size int, err error) {
	if err != nil {
		m.catalogLoadFailures.Inc()
	}
	m.catalogSize.Set(float64(size))
}
