package dht

import (
	"log/slog"
	"math/rand/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/mourao666/cassandra-sim/dht"

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	catalog     Catalog
	source      rand.Source
	concurrency int
	limiter     *rate.Limiter
	tracer      trace.Tracer
}

// Option configures a SimilarityPartitioner.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithCatalog sets the schema and split-estimate source used by
// DescribeOwnership.
func WithCatalog(c Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithRandSource makes RandomToken draw from src instead of the runtime
// generator. Access to src is serialized.
func WithRandSource(src rand.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithOwnershipConcurrency bounds the number of concurrent split-estimate
// queries issued by DescribeOwnership. Default: 8.
func WithOwnershipConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithOwnershipRateLimit caps split-estimate queries per second.
func WithOwnershipRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTracer overrides the OpenTelemetry tracer. Default: the global
// provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metrics:     NoopMetricsCollector{},
		logger:      NoopLogger(),
		concurrency: 8,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	if o.concurrency <= 0 {
		o.concurrency = 1
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}
