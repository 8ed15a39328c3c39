// Package prometheus exports partitioner metrics through client_golang.
package prometheus

import (
	"time"

	"github.com/mourao666/cassandra-sim/dht"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "simtoken"

// Collector implements dht.MetricsCollector on Prometheus instruments.
type Collector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	ringSize  prometheus.Gauge
	splits    prometheus.Counter
}

var _ dht.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its instruments with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of token space operations",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Token space operations processed",
		}, []string{"op", "status"}),
		ringSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ownership_ring_tokens",
			Help:      "Ring size seen by the last ownership query",
		}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ownership_splits_total",
			Help:      "Split estimates summed by ownership queries",
		}),
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.ops, c.ringSize, c.splits} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer) *Collector {
	c, err := New(reg)
	if err != nil {
		panic(err)
	}
	return c
}

// RecordProjection implements dht.MetricsCollector.
func (c *Collector) RecordProjection(d time.Duration, err error) {
	c.observe("projection", d, err)
}

// RecordMidpoint implements dht.MetricsCollector.
func (c *Collector) RecordMidpoint(d time.Duration) {
	c.observe("midpoint", d, nil)
}

// RecordOwnership implements dht.MetricsCollector.
func (c *Collector) RecordOwnership(tokens int, splits int64, d time.Duration, err error) {
	c.observe("ownership", d, err)
	c.ringSize.Set(float64(tokens))
	if splits > 0 {
		c.splits.Add(float64(splits))
	}
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.opLatency.WithLabelValues(op, status).Observe(d.Seconds())
	c.ops.WithLabelValues(op, status).Inc()
}
