package dht

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/mourao666/cassandra-sim/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sampleCatalog estimates splits by counting stored sample tokens.
type sampleCatalog struct {
	order  Partitioner
	tables []TableRef
	rows   map[TableRef][]Token
	calls  atomic.Int64
}

func (c *sampleCatalog) Tables(context.Context) ([]TableRef, error) {
	return c.tables, nil
}

func (c *sampleCatalog) SplitCountEstimate(_ context.Context, table TableRef, r Range) (int, error) {
	c.calls.Add(1)
	n := 0
	for _, tok := range c.rows[table] {
		if r.Contains(c.order, tok) {
			n++
		}
	}
	return n, nil
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Tables(ctx context.Context) ([]TableRef, error) {
	args := m.Called(ctx)
	tables, _ := args.Get(0).([]TableRef)
	return tables, args.Error(1)
}

func (m *mockCatalog) SplitCountEstimate(ctx context.Context, table TableRef, r Range) (int, error) {
	args := m.Called(ctx, table, r)
	return args.Int(0), args.Error(1)
}

func TestDescribeOwnership(t *testing.T) {
	order := generatedPartitioner(t, 32, 6)
	rng := testutil.NewRNG(99)

	users := TableRef{Keyspace: "app", Table: "users"}
	events := TableRef{Keyspace: "app", Table: "events"}
	catalog := &sampleCatalog{
		order:  order,
		tables: []TableRef{users, events},
		rows:   map[TableRef][]Token{},
	}
	for _, table := range catalog.tables {
		for _, key := range rng.Keys(500, 6) {
			tok, err := order.TokenFor(key)
			require.NoError(t, err)
			catalog.rows[table] = append(catalog.rows[table], tok)
		}
	}

	metrics := &BasicMetricsCollector{}
	p := generatedPartitioner(t, 32, 6,
		WithCatalog(catalog),
		WithMetricsCollector(metrics),
		WithOwnershipConcurrency(3),
	)

	ring := make([]Token, 0, 8)
	for _, key := range rng.Keys(8, 6) {
		tok, err := p.TokenFor(key)
		require.NoError(t, err)
		ring = append(ring, tok)
	}
	p.Sort(ring)
	ring = compactTokens(p, ring)

	result, err := p.DescribeOwnership(context.Background(), ring)
	require.NoError(t, err)
	require.Len(t, result, len(ring))

	var sum float64
	ranges := Ranges(ring)
	for i, o := range result {
		assert.True(t, o.Token.Equal(ring[i]))
		assert.GreaterOrEqual(t, o.Fraction, 0.0)
		sum += o.Fraction

		want := 0
		for _, table := range catalog.tables {
			for _, tok := range catalog.rows[table] {
				if ranges[i].Contains(p, tok) {
					want++
				}
			}
		}
		assert.InDelta(t, float64(want)/1000, o.Fraction, 1e-12)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, int64(2*len(ring)), catalog.calls.Load())

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.OwnershipCount)
	assert.Equal(t, int64(1000), stats.OwnershipSplits)
	assert.Zero(t, stats.OwnershipErrors)
}

func TestDescribeOwnershipSingleToken(t *testing.T) {
	c := &mockCatalog{}
	ref := TableRef{Keyspace: "ks", Table: "t"}
	c.On("Tables", mock.Anything).Return([]TableRef{ref}, nil)
	c.On("SplitCountEstimate", mock.Anything, ref, mock.Anything).Return(7, nil)

	p := fixedPartitioner(t, WithCatalog(c))
	result, err := p.DescribeOwnership(context.Background(), []Token{tokenAt(42, 1)})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 1.0, result[0].Fraction)
	c.AssertExpectations(t)
}

func TestDescribeOwnershipEmptyRing(t *testing.T) {
	c := &mockCatalog{}
	p := fixedPartitioner(t, WithCatalog(c))

	result, err := p.DescribeOwnership(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	c.AssertNotCalled(t, "Tables", mock.Anything)
}

func TestDescribeOwnershipUndefined(t *testing.T) {
	c := &mockCatalog{}
	c.On("Tables", mock.Anything).Return([]TableRef{{Keyspace: "ks", Table: "t"}}, nil)
	c.On("SplitCountEstimate", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

	metrics := &BasicMetricsCollector{}
	p := fixedPartitioner(t, WithCatalog(c), WithMetricsCollector(metrics))
	_, err := p.DescribeOwnership(context.Background(), []Token{tokenAt(1, 1), tokenAt(2, 1)})
	require.ErrorIs(t, err, ErrUndefinedOwnership)
	assert.Equal(t, int64(1), metrics.GetStats().OwnershipErrors)

	c.ExpectedCalls = nil
	c.On("Tables", mock.Anything).Return([]TableRef{}, nil)
	_, err = p.DescribeOwnership(context.Background(), []Token{tokenAt(1, 1)})
	require.ErrorIs(t, err, ErrUndefinedOwnership)
}

func TestDescribeOwnershipCatalogErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("tables", func(t *testing.T) {
		c := &mockCatalog{}
		c.On("Tables", mock.Anything).Return(nil, boom)

		p := fixedPartitioner(t, WithCatalog(c))
		_, err := p.DescribeOwnership(context.Background(), []Token{tokenAt(1, 1)})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "list tables")
	})

	t.Run("estimate", func(t *testing.T) {
		c := &mockCatalog{}
		ref := TableRef{Keyspace: "ks", Table: "t"}
		c.On("Tables", mock.Anything).Return([]TableRef{ref}, nil)
		c.On("SplitCountEstimate", mock.Anything, ref, mock.Anything).Return(0, boom)

		p := fixedPartitioner(t, WithCatalog(c))
		_, err := p.DescribeOwnership(context.Background(), []Token{tokenAt(1, 1), tokenAt(9, 1)})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "ks.t")
	})
}

func TestDescribeOwnershipRequiresCatalog(t *testing.T) {
	p := fixedPartitioner(t)
	_, err := p.DescribeOwnership(context.Background(), []Token{tokenAt(1, 1)})
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestDescribeOwnershipRejectsUnsorted(t *testing.T) {
	c := &mockCatalog{}
	p := fixedPartitioner(t, WithCatalog(c))

	_, err := p.DescribeOwnership(context.Background(), []Token{tokenAt(9, 1), tokenAt(1, 1)})
	assert.ErrorIs(t, err, ErrUnsorted)

	_, err = p.DescribeOwnership(context.Background(), []Token{tokenAt(1, 1), tokenAt(1, 1)})
	assert.ErrorIs(t, err, ErrUnsorted)
	c.AssertNotCalled(t, "Tables", mock.Anything)
}

func TestDescribeOwnershipRateLimited(t *testing.T) {
	c := &mockCatalog{}
	ref := TableRef{Keyspace: "ks", Table: "t"}
	c.On("Tables", mock.Anything).Return([]TableRef{ref}, nil)
	c.On("SplitCountEstimate", mock.Anything, ref, mock.Anything).Return(1, nil)

	p := fixedPartitioner(t, WithCatalog(c), WithOwnershipRateLimit(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.DescribeOwnership(ctx, []Token{tokenAt(1, 1), tokenAt(2, 1), tokenAt(3, 1)})
	require.ErrorIs(t, err, context.Canceled)
}

// compactTokens drops adjacent duplicates from a sorted slice.
func compactTokens(p Partitioner, sorted []Token) []Token {
	out := sorted[:0]
	for _, tok := range sorted {
		if len(out) > 0 && p.Compare(out[len(out)-1], tok) == 0 {
			continue
		}
		out = append(out, tok)
	}
	return out
}
