package kwaysort

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects sort pass statistics. One Metrics value can be shared by
// any number of Sorters.
type Metrics struct {
	// Passes counts finished passes by mode (eager/lazy) and status (success/error/abandoned)
	Passes *prometheus.CounterVec
	// PassDuration observes the wall time of finished passes
	PassDuration *prometheus.HistogramVec
	// RecordsRead counts records decoded from inputs
	RecordsRead prometheus.Counter
	// RunsSpilled counts run files written
	RunsSpilled prometheus.Counter
	// RunsOpen is the number of run files currently on disk
	RunsOpen prometheus.Gauge
}

// NewMetrics creates the pass metrics and registers them with reg.
// A nil reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Passes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kwaysort_passes_total",
				Help: "Total number of sort passes",
			},
			[]string{"mode", "status"},
		),
		PassDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kwaysort_pass_duration_seconds",
				Help:    "Duration of sort passes in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		RecordsRead: f.NewCounter(prometheus.CounterOpts{
			Name: "kwaysort_records_read_total",
			Help: "Total number of records read from inputs",
		}),
		RunsSpilled: f.NewCounter(prometheus.CounterOpts{
			Name: "kwaysort_runs_spilled_total",
			Help: "Total number of runs spilled to disk",
		}),
		RunsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "kwaysort_runs_on_disk",
			Help: "Number of run files currently on disk",
		}),
	}
}

func (m *Metrics) recordRead() {
	if m == nil {
		return
	}
	m.RecordsRead.Inc()
}

func (m *Metrics) runSpilled() {
	if m == nil {
		return
	}
	m.RunsSpilled.Inc()
	m.RunsOpen.Inc()
}

func (m *Metrics) runsRemoved(n int) {
	if m == nil {
		return
	}
	m.RunsOpen.Sub(float64(n))
}

func (m *Metrics) passDone(mode, status string, start time.Time) {
	if m == nil {
		return
	}
	m.Passes.WithLabelValues(mode, status).Inc()
	m.PassDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
