// Package metrics keeps agent counters in a private Prometheus registry and
// writes them to a node-exporter textfile. Nothing listens on a socket.
package metrics

import (
	"github.com/Harshitk-cp/lumen/internal/pipeline"
	"github.com/Harshitk-cp/lumen/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const namespace = "lumen"

type Metrics struct {
	registry *prometheus.Registry
	textfile string
	logger   *zap.Logger

	ticks            *prometheus.CounterVec
	tickDuration     prometheus.Histogram
	cycle            prometheus.Gauge
	emotion          *prometheus.GaugeVec
	valence          prometheus.Gauge
	pipelineOutcomes *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
}

// New registers every collector. An empty textfile disables Flush.
func New(textfile string, logger *zap.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		logger:   logger,
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks by selected action.",
		}, []string{"action"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one scheduler tick.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		cycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle",
			Help:      "Number of the last completed cycle.",
		}),
		emotion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "emotion",
			Help:      "Current value of each emotional scalar.",
		}, []string{"name"}),
		valence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "valence",
			Help:      "Overall emotional valence in [-1, 1].",
		}),
		pipelineOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "candidates_total",
			Help:      "Candidates by final pipeline state.",
		}, []string{"state"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Time from staging to the final state.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.ticks, m.tickDuration, m.cycle, m.emotion, m.valence,
		m.pipelineOutcomes, m.pipelineDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObservePipeline(out *pipeline.Outcome) {
	state := string(out.State)
	if out.State != pipeline.StateCommitted && out.State != pipeline.StateRejected {
		state = "io_failure"
	}
	m.pipelineOutcomes.WithLabelValues(state).Inc()
	m.pipelineDuration.Observe(out.Elapsed.Seconds())
	if out.Committed() {
		// The process exits next; this is the last chance to write.
		m.Flush()
	}
}

func (m *Metrics) ObserveTick(r service.TickReport) {
	m.ticks.WithLabelValues(string(r.Action)).Inc()
	m.tickDuration.Observe(r.Elapsed.Seconds())
	m.cycle.Set(float64(r.Cycle))
	for name, v := range r.Emotions {
		m.emotion.WithLabelValues(name).Set(float64(v))
	}
	m.valence.Set(float64(r.Valence))
	m.Flush()
}

// Flush writes the registry to the textfile atomically.
func (m *Metrics) Flush() {
	if m.textfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		m.logger.Warn("failed to write metrics textfile", zap.String("path", m.textfile), zap.Error(err))
	}
}
