package geomap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const mapIDLabel = "map"

// Metrics exports the state of one map. A nil *Metrics records nothing.
type Metrics struct {
	tiles          prometheus.Gauge
	displayedTiles prometheus.Gauge
	pendingCleanup prometheus.Gauge
	subdivisions   prometheus.Counter
	retirements    prometheus.Counter
	frameDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer, mapID string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{mapIDLabel: mapID}
	return &Metrics{
		tiles: f.NewGauge(prometheus.GaugeOpts{
			Name:        "geomap_tiles",
			Help:        "The number of live tiles.",
			ConstLabels: labels,
		}),
		displayedTiles: f.NewGauge(prometheus.GaugeOpts{
			Name:        "geomap_displayed_tiles",
			Help:        "The number of tiles whose content is displayed.",
			ConstLabels: labels,
		}),
		pendingCleanup: f.NewGauge(prometheus.GaugeOpts{
			Name:        "geomap_pending_cleanup",
			Help:        "The number of sibling groups waiting for destruction.",
			ConstLabels: labels,
		}),
		subdivisions: f.NewCounter(prometheus.CounterOpts{
			Name:        "geomap_subdivisions_total",
			Help:        "The number of tiles subdivided.",
			ConstLabels: labels,
		}),
		retirements: f.NewCounter(prometheus.CounterOpts{
			Name:        "geomap_retired_tiles_total",
			Help:        "The number of tiles destroyed after the cleanup delay.",
			ConstLabels: labels,
		}),
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "geomap_update_seconds",
			Help:        "The time spent updating the map in one frame.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
}

func (m *Metrics) observeState(tiles, displayed, pending int) {
	if m == nil {
		return
	}
	m.tiles.Set(float64(tiles))
	m.displayedTiles.Set(float64(displayed))
	m.pendingCleanup.Set(float64(pending))
}

func (m *Metrics) incSubdivisions() {
	if m != nil {
		m.subdivisions.Inc()
	}
}

func (m *Metrics) addRetirements(n int) {
	if m != nil && n > 0 {
		m.retirements.Add(float64(n))
	}
}

func (m *Metrics) observeFrame(seconds float64) {
	if m != nil {
		m.frameDuration.Observe(seconds)
	}
}
