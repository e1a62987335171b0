// Package metrics exposes simulator progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/ir"
)

// Collector is an engine.Observer that counts pulses and triggers.
//
// Metrics are updated on the simulator goroutine; Prometheus types are
// safe to scrape concurrently from an HTTP handler.
type Collector struct {
	pulses        *prometheus.CounterVec
	triggers      prometheus.Counter
	queueDepthMax prometheus.Gauge
	triggerPulses prometheus.Histogram

	lows  prometheus.Counter
	highs prometheus.Counter

	maxDepth int
}

// NewCollector creates a Collector and registers its metrics with reg.
// The circuit label is attached to every metric as a constant label;
// pass "" to omit it.
func NewCollector(reg prometheus.Registerer, circuit string) (*Collector, error) {
	var labels prometheus.Labels
	if circuit != "" {
		labels = prometheus.Labels{"circuit": circuit}
	}

	c := &Collector{
		pulses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "pulsenet_pulses_total",
				Help:        "Total number of delivered pulses by level",
				ConstLabels: labels,
			},
			[]string{"level"},
		),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pulsenet_triggers_total",
			Help:        "Total number of completed triggers",
			ConstLabels: labels,
		}),
		queueDepthMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pulsenet_queue_depth_max",
			Help:        "Longest pulse queue seen in any trigger",
			ConstLabels: labels,
		}),
		triggerPulses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "pulsenet_trigger_pulses",
			Help:        "Pulses delivered per trigger",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	c.lows = c.pulses.WithLabelValues(ir.Low.String())
	c.highs = c.pulses.WithLabelValues(ir.High.String())

	for _, m := range []prometheus.Collector{c.pulses, c.triggers, c.queueDepthMax, c.triggerPulses} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OnPulse implements engine.Observer.
func (c *Collector) OnPulse(_ int64, p ir.Pulse) {
	if p.Level == ir.High {
		c.highs.Inc()
	} else {
		c.lows.Inc()
	}
}

// OnTrigger implements engine.Observer.
func (c *Collector) OnTrigger(r engine.TriggerResult) {
	c.triggers.Inc()
	c.triggerPulses.Observe(float64(r.Lows + r.Highs))
	if r.MaxDepth > c.maxDepth {
		c.maxDepth = r.MaxDepth
		c.queueDepthMax.Set(float64(r.MaxDepth))
	}
}

var _ engine.Observer = (*Collector)(nil)
