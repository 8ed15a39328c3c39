package dht

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from a partitioner.
// metrics/prometheus provides an implementation backed by client_golang.
type MetricsCollector interface {
	// RecordProjection is called after each TokenFor with a non-empty key.
	RecordProjection(duration time.Duration, err error)

	// RecordMidpoint is called after each Midpoint.
	RecordMidpoint(duration time.Duration)

	// RecordOwnership is called after each DescribeOwnership.
	// tokens is the ring size, splits the total split count observed.
	RecordOwnership(tokens int, splits int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordProjection(time.Duration, error)            {}
func (NoopMetricsCollector) RecordMidpoint(time.Duration)                     {}
func (NoopMetricsCollector) RecordOwnership(int, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ProjectionCount      atomic.Int64
	ProjectionErrors     atomic.Int64
	ProjectionTotalNanos atomic.Int64
	MidpointCount        atomic.Int64
	OwnershipCount       atomic.Int64
	OwnershipErrors      atomic.Int64
	OwnershipSplits      atomic.Int64
	OwnershipTotalNanos  atomic.Int64
}

// RecordProjection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProjection(duration time.Duration, err error) {
	b.ProjectionCount.Add(1)
	b.ProjectionTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ProjectionErrors.Add(1)
	}
}

// RecordMidpoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMidpoint(time.Duration) {
	b.MidpointCount.Add(1)
}

// RecordOwnership implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOwnership(_ int, splits int64, duration time.Duration, err error) {
	b.OwnershipCount.Add(1)
	b.OwnershipTotalNanos.Add(duration.Nanoseconds())
	b.OwnershipSplits.Add(splits)
	if err != nil {
		b.OwnershipErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ProjectionCount:    b.ProjectionCount.Load(),
		ProjectionErrors:   b.ProjectionErrors.Load(),
		ProjectionAvgNanos: avg(b.ProjectionTotalNanos.Load(), b.ProjectionCount.Load()),
		MidpointCount:      b.MidpointCount.Load(),
		OwnershipCount:     b.OwnershipCount.Load(),
		OwnershipErrors:    b.OwnershipErrors.Load(),
		OwnershipSplits:    b.OwnershipSplits.Load(),
		OwnershipAvgNanos:  avg(b.OwnershipTotalNanos.Load(), b.OwnershipCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ProjectionCount    int64
	ProjectionErrors   int64
	ProjectionAvgNanos int64
	MidpointCount      int64
	OwnershipCount     int64
	OwnershipErrors    int64
	OwnershipSplits    int64
	OwnershipAvgNanos  int64
}
