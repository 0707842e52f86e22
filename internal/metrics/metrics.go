package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnlvgl/zutil/internal/smf"
	"github.com/dnlvgl/zutil/internal/zone"
)

// Metrics holds the Prometheus collectors for zone queries on a private
// registry.
type Metrics struct {
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Zones         *prometheus.GaugeVec
	SnapshotTime  prometheus.Gauge
	ServiceState  *prometheus.GaugeVec
	registry      *prometheus.Registry
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zutil_queries_total",
				Help: "Total number of zone queries by operation and outcome",
			},
			[]string{"op", "result"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zutil_query_duration_seconds",
				Help:    "Zone query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Zones: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zutil_zones",
				Help: "Number of zones in the last snapshot by status",
			},
			[]string{"status"},
		),
		SnapshotTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "zutil_snapshot_timestamp_seconds",
				Help: "Unix time the last zone snapshot was taken",
			},
		),
		ServiceState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zutil_service_state",
				Help: "Service state per zone; 1 for the current state, 0 otherwise",
			},
			[]string{"zone", "fmri", "state"},
		),
		registry: registry,
	}

	registry.MustRegister(m.Queries)
	registry.MustRegister(m.QueryDuration)
	registry.MustRegister(m.Zones)
	registry.MustRegister(m.SnapshotTime)
	registry.MustRegister(m.ServiceState)

	return m
}

// ObserveQuery records one facade call.
func (m *Metrics) ObserveQuery(op string, started time.Time, err error) {
	m.Queries.WithLabelValues(op, zone.KindOf(err)).Inc()
	m.QueryDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveSnapshot records zone counts from a fresh snapshot.
func (m *Metrics) ObserveSnapshot(snap *zone.Snapshot) {
	m.Zones.Reset()
	for status, n := range snap.CountByStatus() {
		m.Zones.WithLabelValues(string(status)).Set(float64(n))
	}
	m.SnapshotTime.Set(float64(snap.Taken().Unix()))
}

// ServiceObservation is the state of one watched service in one zone.
type ServiceObservation struct {
	Zone  string
	FMRI  string
	State smf.State
}

// SetServiceStates replaces every service state series with obs. Services
// and zones missing from obs stop being exported.
func (m *Metrics) SetServiceStates(obs []ServiceObservation) {
	m.ServiceState.Reset()
	for _, o := range obs {
		for _, s := range smf.States {
			v := 0.0
			if s == o.State {
				v = 1
			}
			m.ServiceState.WithLabelValues(o.Zone, o.FMRI, string(s)).Set(v)
		}
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
