package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// radar priority pipeline.
type Metrics struct {
	RecordsConsumed prometheus.Counter
	RecordsRejected *prometheus.CounterVec // label: reason
	PipelineRunning prometheus.Gauge

	// Catalogue build metrics.
	CataloguesBuilt   prometheus.Counter
	SegmentsPublished prometheus.Counter
	SegmentsScored    prometheus.Gauge
	DegenerateScopes  prometheus.Gauge
	EventsStored      prometheus.Gauge

	BatchSize             prometheus.Histogram
	CatalogueBuildSeconds prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "records_consumed_total",
			Help:      "Total raw accident records read from the source topic.",
		}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "records_rejected_total",
			Help:      "Malformed records skipped, by rejection reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		CataloguesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "catalogues_built_total",
			Help:      "Total wholesale catalogue rebuilds.",
		}),
		SegmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "segments_published_total",
			Help:      "Total scored segments written to the sink topic.",
		}),
		SegmentsScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_etl",
			Name:      "segments_scored",
			Help:      "Segments in the most recent catalogue.",
		}),
		DegenerateScopes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_etl",
			Name:      "degenerate_scopes",
			Help:      "Normalization scope groups with equal densities in the most recent catalogue.",
		}),
		EventsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_etl",
			Name:      "events_stored",
			Help:      "Deduplicated accident events currently held by the pipeline.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_etl",
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		CatalogueBuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_etl",
			Name:      "catalogue_build_duration_seconds",
			Help:      "Duration of a complete catalogue rebuild.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RecordsConsumed,
		m.RecordsRejected,
		m.PipelineRunning,
		m.CataloguesBuilt,
		m.SegmentsPublished,
		m.SegmentsScored,
		m.DegenerateScopes,
		m.EventsStored,
		m.BatchSize,
		m.CatalogueBuildSeconds,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsConsumed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "records_consumed_total"}),
		RecordsRejected:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "radar_etl", Name: "records_rejected_total"}, []string{"reason"}),
		PipelineRunning:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "radar_etl", Name: "pipeline_running"}),
		CataloguesBuilt:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "catalogues_built_total"}),
		SegmentsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "segments_published_total"}),
		SegmentsScored:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "radar_etl", Name: "segments_scored"}),
		DegenerateScopes:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "radar_etl", Name: "degenerate_scopes"}),
		EventsStored:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "radar_etl", Name: "events_stored"}),
		BatchSize:             prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "radar_etl", Name: "batch_size"}),
		CatalogueBuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "radar_etl", Name: "catalogue_build_duration_seconds"}),
	}
}
