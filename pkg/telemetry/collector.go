// Package telemetry counts interceptor trap activity with Prometheus metrics.
package telemetry

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"interceptor/pkg/intercept"
)

const namespace = "interceptor"

// Collector is an intercept.Observer backed by Prometheus counters. One
// Collector may observe any number of objects.
type Collector struct {
	calls    *prometheus.CounterVec
	declines *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

var _ intercept.Observer = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

func NewCollector() *Collector {
	return &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegate_calls_total",
			Help:      "Delegate invocations by access kind.",
		}, []string{"kind"}),
		declines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "declines_total",
			Help:      "Accesses that fell back to default storage, by access kind and reason.",
		}, []string{"kind", "reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegate_errors_total",
			Help:      "Delegate invocations that raised an error, by access kind.",
		}, []string{"kind"}),
	}
}

func (c *Collector) Delegated(kind intercept.Kind) {
	c.calls.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) Declined(kind intercept.Kind, reason intercept.DeclineReason) {
	c.declines.WithLabelValues(kind.String(), reason.String()).Inc()
}

func (c *Collector) Failed(kind intercept.Kind) {
	c.errors.WithLabelValues(kind.String()).Inc()
}

// Calls returns the invocation counter for kind.
func (c *Collector) Calls(kind intercept.Kind) prometheus.Counter {
	return c.calls.WithLabelValues(kind.String())
}

// Declines returns the decline counter for kind and reason.
func (c *Collector) Declines(kind intercept.Kind, reason intercept.DeclineReason) prometheus.Counter {
	return c.declines.WithLabelValues(kind.String(), reason.String())
}

// Errors returns the error counter for kind.
func (c *Collector) Errors(kind intercept.Kind) prometheus.Counter {
	return c.errors.WithLabelValues(kind.String())
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.calls.Describe(ch)
	c.declines.Describe(ch)
	c.errors.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.calls.Collect(ch)
	c.declines.Collect(ch)
	c.errors.Collect(ch)
}

// Register adds the collector's metrics to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("registering interceptor metrics: %w", err)
	}
	return nil
}

// WriteText renders every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
