package dht

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// TableRef names one table of the schema.
type TableRef struct {
	Keyspace string `json:"keyspace" yaml:"keyspace"`
	Table    string `json:"table" yaml:"table"`
}

func (t TableRef) String() string { return t.Keyspace + "." + t.Table }

// Catalog is the schema and storage view DescribeOwnership aggregates over.
type Catalog interface {
	// Tables lists every table of every keyspace.
	Tables(ctx context.Context) ([]TableRef, error)
	// SplitCountEstimate estimates how many splits of one key per split the
	// table holds in r.
	SplitCountEstimate(ctx context.Context, table TableRef, r Range) (int, error)
}

// DescribeOwnership estimates the fraction of stored data each token of a
// sorted ring owns. Token i owns (sorted[i-1], sorted[i]], with the first
// range wrapping from the last token. For every table and range the catalog's
// split estimate is added to the range's right token; the sums are then
// normalised.
//
// An empty ring yields an empty result. A zero total yields
// ErrUndefinedOwnership. Catalog errors are returned wrapped.
func (p *SimilarityPartitioner) DescribeOwnership(ctx context.Context, sorted []Token) (result []TokenOwnership, err error) {
	if len(sorted) == 0 {
		return []TokenOwnership{}, nil
	}
	if p.opts.catalog == nil {
		return nil, ErrNoCatalog
	}
	for i := 1; i < len(sorted); i++ {
		if p.Compare(sorted[i-1], sorted[i]) >= 0 {
			return nil, fmt.Errorf("%w: token %d (%s) does not follow %s", ErrUnsorted, i, sorted[i], sorted[i-1])
		}
	}

	ctx, span := p.opts.tracer.Start(ctx, "dht.DescribeOwnership")
	span.SetAttributes(attribute.Int("ring.tokens", len(sorted)))

	start := time.Now()
	var tables []TableRef
	var total int64
	defer func() {
		p.opts.metrics.RecordOwnership(len(sorted), total, time.Since(start), err)
		p.opts.logger.LogOwnership(ctx, len(sorted), len(tables), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tables, err = p.opts.catalog.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	span.SetAttributes(attribute.Int("schema.tables", len(tables)))

	counts := make([]int64, len(sorted))
	ranges := Ranges(sorted)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.concurrency)
	for _, table := range tables {
		for i, r := range ranges {
			g.Go(func() error {
				if p.opts.limiter != nil {
					if err := p.opts.limiter.Wait(gctx); err != nil {
						return err
					}
				}
				n, err := p.opts.catalog.SplitCountEstimate(gctx, table, r)
				if err != nil {
					return fmt.Errorf("split estimate for %s in %s: %w", table, r, err)
				}
				atomic.AddInt64(&counts[i], int64(n))
				return nil
			})
		}
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return nil, ErrUndefinedOwnership
	}

	result = make([]TokenOwnership, len(sorted))
	for i, t := range sorted {
		result[i] = TokenOwnership{Token: t, Fraction: float64(counts[i]) / float64(total)}
	}
	return result, nil
}
