package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "swissmetnet_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the fetch pipeline.
type Metrics struct {
	// Fetch client metrics.
	FetchRequests  *prometheus.CounterVec   // labels: resource={stations,measurements}
	FetchErrors    *prometheus.CounterVec   // labels: resource, kind={transport,status,decode}
	FetchDuration  *prometheus.HistogramVec // labels: resource
	RecordsDecoded *prometheus.CounterVec   // labels: resource

	// Scheduler metrics.
	SchedulerRunning *prometheus.GaugeVec     // labels: schedule
	Ticks            *prometheus.CounterVec   // labels: schedule
	TickErrors       *prometheus.CounterVec   // labels: schedule
	SkippedTicks     *prometheus.CounterVec   // labels: schedule
	TickDuration     *prometheus.HistogramVec // labels: schedule

	// Snapshot metrics.
	SnapshotStations     prometheus.Gauge
	SnapshotMeasurements prometheus.Gauge
	UnmatchedPoints      prometheus.Gauge
	LastRefresh          *prometheus.GaugeVec // labels: resource; unix seconds of the last successful refresh
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchErrors,
		m.FetchDuration,
		m.RecordsDecoded,
		m.SchedulerRunning,
		m.Ticks,
		m.TickErrors,
		m.SkippedTicks,
		m.TickDuration,
		m.SnapshotStations,
		m.SnapshotMeasurements,
		m.UnmatchedPoints,
		m.LastRefresh,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "HTTP fetches issued against MeteoSwiss, by resource.",
		}, []string{"resource"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed fetches by resource and error kind.",
		}, []string{"resource", "kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a fetch including body download and decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"resource"}),
		RecordsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      "Records decoded from successful fetches, by resource.",
		}, []string{"resource"}),
		SchedulerRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the schedule's background loop is alive, 0 otherwise.",
		}, []string{"schedule"}),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduled job invocations.",
		}, []string{"schedule"}),
		TickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_errors_total",
			Help:      "Scheduled job invocations that returned an error or panicked.",
		}, []string{"schedule"}),
		SkippedTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_skipped_ticks_total",
			Help:      "Trigger boundaries skipped because the previous job overran them.",
		}, []string{"schedule"}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Duration of a scheduled job invocation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"schedule"}),
		SnapshotStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_stations",
			Help:      "Stations held in the latest snapshot.",
		}),
		SnapshotMeasurements: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_measurements",
			Help:      "Measuring points held in the latest snapshot.",
		}),
		UnmatchedPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_unmatched_measurements",
			Help:      "Measuring points in the latest snapshot whose station abbreviation is unknown.",
		}),
		LastRefresh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful refresh, by resource.",
		}, []string{"resource"}),
	}
}
