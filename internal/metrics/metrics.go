// Package metrics records planning run statistics in a Prometheus registry
// that can be written out as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/obzplan/obzplan/internal/planner"
)

// Recorder implements planner.Recorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	samplesTotal      *prometheus.CounterVec
	degenerateTotal   *prometheus.CounterVec
	buildDuration     prometheus.Gauge
	gridSamples       prometheus.Gauge
	sources           prometheus.Gauge
	observableRatio   *prometheus.GaugeVec
	interferenceTotal *prometheus.GaugeVec
}

var _ planner.Recorder = (*Recorder)(nil)

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		samplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obzplan_samples_total",
				Help: "Classified samples by source and tag.",
			},
			[]string{"source", "tag"},
		),
		degenerateTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obzplan_degenerate_separations_total",
				Help: "Samples whose Sun or Moon separation was undefined and treated as blocked.",
			},
			[]string{"source"},
		),
		buildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obzplan_build_duration_seconds",
			Help: "Wall time of the last timeline build.",
		}),
		gridSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obzplan_grid_samples",
			Help: "Samples in the observation window grid.",
		}),
		sources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obzplan_sources",
			Help: "Catalog sources evaluated per sample.",
		}),
		observableRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "obzplan_observable_ratio",
				Help: "Fraction of the window during which a requested source is observable.",
			},
			[]string{"source"},
		),
		interferenceTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "obzplan_interference_samples",
				Help: "Interference samples of a requested source by body.",
			},
			[]string{"source", "body"},
		),
	}

	r.registry.MustRegister(
		r.samplesTotal,
		r.degenerateTotal,
		r.buildDuration,
		r.gridSamples,
		r.sources,
		r.observableRatio,
		r.interferenceTotal,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSample counts one classified sample.
func (r *Recorder) ObserveSample(source string, tag planner.Tag) {
	r.samplesTotal.WithLabelValues(source, tag.String()).Inc()
}

// ObserveDegenerate counts one sample with an undefined separation.
func (r *Recorder) ObserveDegenerate(source string) {
	r.degenerateTotal.WithLabelValues(source).Inc()
}

// ObserveBuild records the size and duration of a build.
func (r *Recorder) ObserveBuild(samples, sources int, elapsed time.Duration) {
	r.gridSamples.Set(float64(samples))
	r.sources.Set(float64(sources))
	r.buildDuration.Set(elapsed.Seconds())
}

// ObservePlan records per-source observability for the requested sources.
func (r *Recorder) ObservePlan(p *planner.Plan) {
	for _, name := range p.Requested {
		tl := p.Timeline(name)
		if tl == nil || tl.Len() == 0 {
			continue
		}
		r.observableRatio.WithLabelValues(name).Set(float64(tl.Observed()) / float64(tl.Len()))

		sun, moon := 0, 0
		for _, ev := range tl.Interference {
			if ev.Tag.Has(planner.SunBlocked) {
				sun++
			}
			if ev.Tag.Has(planner.MoonBlocked) {
				moon++
			}
		}
		r.interferenceTotal.WithLabelValues(name, "sun").Set(float64(sun))
		r.interferenceTotal.WithLabelValues(name, "moon").Set(float64(moon))
	}
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
