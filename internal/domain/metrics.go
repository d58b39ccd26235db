package domain

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	tracerName       = "github.com/babydessy/mutest-rs/internal/domain"
	metricsNamespace = "mutest"
	analysisSubsys   = "analysis"
)

// Metrics holds the gauges describing the last analysis run.
type Metrics struct {
	registry *prometheus.Registry

	targets      prometheus.Gauge
	mutations    *prometheus.GaugeVec
	mutants      prometheus.Gauge
	conflicts    prometheus.Gauge
	diagnostics  *prometheus.GaugeVec
	phaseSeconds *prometheus.GaugeVec
}

// NewMetrics creates metrics registered on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: analysisSubsys,
			Name:      "targets",
			Help:      "Definitions reachable from the test suite",
		}),
		mutations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: analysisSubsys,
			Name:      "mutations",
			Help:      "Mutations generated, by safety",
		}, []string{"safety"}),
		mutants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: analysisSubsys,
			Name:      "mutants",
			Help:      "Mutants produced by batching",
		}),
		conflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: analysisSubsys,
			Name:      "conflicts",
			Help:      "Conflicting mutation pairs",
		}),
		diagnostics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: analysisSubsys,
			Name:      "diagnostics",
			Help:      "Diagnostics reported, by level",
		}, []string{"level"}),
		phaseSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: analysisSubsys,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each analysis phase in seconds",
		}, []string{"phase"}),
	}

	m.registry.MustRegister(m.targets, m.mutations, m.mutants, m.conflicts, m.diagnostics, m.phaseSeconds)

	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records the figures of an analysis.
func (m *Metrics) Observe(a *Analysis) {
	if m == nil || a == nil {
		return
	}

	m.targets.Set(float64(len(a.Targets())))

	m.mutations.Reset()

	for _, mut := range a.Muts {
		m.mutations.WithLabelValues(string(mut.Safety())).Inc()
	}

	m.mutants.Set(float64(len(a.Mutants)))

	if a.Conflicts != nil {
		m.conflicts.Set(float64(a.Conflicts.NumConflicts()))
	}

	m.diagnostics.Reset()

	for _, d := range a.Diagnostics {
		m.diagnostics.WithLabelValues(string(d.Level)).Inc()
	}

	m.phaseSeconds.WithLabelValues("targets").Set(a.Timings.Targets.Seconds())
	m.phaseSeconds.WithLabelValues("mutations").Set(a.Timings.Mutations.Seconds())
	m.phaseSeconds.WithLabelValues("conflicts").Set(a.Timings.Conflicts.Seconds())
	m.phaseSeconds.WithLabelValues("batching").Set(a.Timings.Batching.Seconds())
	m.phaseSeconds.WithLabelValues("total").Set(a.Timings.Total.Seconds())
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		slog.Error("failed to write metrics", "path", path, "error", err)
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}

	return nil
}
