package storage

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/graycode"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/mourao666/cassandra-sim/signature"
	"github.com/mourao666/cassandra-sim/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var users = dht.TableRef{Keyspace: "app", Table: "users"}

func newBank(t *testing.T) *hyperplane.Bank {
	t.Helper()
	bank, err := hyperplane.Generate(16, 6, 7)
	require.NoError(t, err)
	return bank
}

func openStore(t *testing.T, tokenizer Tokenizer, cfgFns ...func(*Config)) *Store {
	t.Helper()
	cfg := InMemoryConfig()
	for _, fn := range cfgFns {
		fn(&cfg)
	}
	s, err := Open(cfg, tokenizer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tokenAt(pos uint64, nbits int) dht.Token {
	return dht.NewToken(signature.FromWords([]uint64{graycode.BinaryToGray(pos)}, nbits))
}

func TestTokenKeyOrder(t *testing.T) {
	bank := newBank(t)
	p, err := dht.NewSimilarityPartitioner(bank)
	require.NoError(t, err)

	tokens := []dht.Token{dht.Minimum(), tokenAt(0, 8), tokenAt(0, 16)}
	for range 200 {
		tokens = append(tokens, p.RandomToken())
	}
	for pos := range uint64(300) {
		tokens = append(tokens, tokenAt(pos, 16))
	}

	for _, a := range tokens {
		for _, b := range tokens[:40] {
			want := p.Compare(a, b)
			assert.Equal(t, want, bytes.Compare(tokenKey(a), tokenKey(b)), "%s vs %s", a, b)
		}
	}
}

func TestSplitRowKey(t *testing.T) {
	pk := []byte("partition")
	for _, tok := range []dht.Token{dht.Minimum(), tokenAt(0, 8), tokenAt(513, 16)} {
		key := rowKey(users, tok, pk)
		tk, gotPK, err := splitRowKey(key[len(tablePrefix(users)):])
		require.NoError(t, err)
		assert.Equal(t, tokenKey(tok), tk)
		assert.Equal(t, pk, gotPK)
	}

	for _, bad := range [][]byte{nil, {0x02}, {0x01, 0x00}, {0x01, 0x00, 0x05, 0x01}} {
		_, _, err := splitRowKey(bad)
		assert.ErrorIs(t, err, errCorruptKey)
	}
}

func TestTables(t *testing.T) {
	ctx := context.Background()
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)
	s := openStore(t, p)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	events := dht.TableRef{Keyspace: "app", Table: "events"}
	metrics := dht.TableRef{Keyspace: "ops", Table: "metrics"}
	for _, ref := range []dht.TableRef{users, metrics, events, users} {
		require.NoError(t, s.CreateTable(ctx, ref))
	}

	tables, err = s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []dht.TableRef{events, users, metrics}, tables)

	assert.ErrorIs(t, s.CreateTable(ctx, dht.TableRef{Keyspace: "", Table: "x"}), ErrInvalidName)
	assert.ErrorIs(t, s.CreateTable(ctx, dht.TableRef{Keyspace: "a\x00b", Table: "x"}), ErrInvalidName)
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)
	s := openStore(t, p, func(c *Config) { c.Logger = slog.New(slog.DiscardHandler) })
	require.NoError(t, s.CreateTable(ctx, users))

	key := hyperplane.EncodeKey([]float64{1, 2, 3, 4, 5, 6})
	tok, err := s.Put(ctx, users, key, []byte("v1"))
	require.NoError(t, err)
	want, err := p.TokenFor(key)
	require.NoError(t, err)
	assert.True(t, tok.Equal(want))

	got, err := s.Get(ctx, users, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	_, err = s.Put(ctx, users, key, []byte("v2"))
	require.NoError(t, err)
	got, err = s.Get(ctx, users, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, users, key))
	_, err = s.Get(ctx, users, key)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, users, key))

	_, err = s.Put(ctx, dht.TableRef{Keyspace: "x", Table: "y"}, key, nil)
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = s.Put(ctx, users, []byte{1, 2}, nil)
	assert.ErrorIs(t, err, hyperplane.ErrKeyShape)
}

func TestCountRowsFollowsRanges(t *testing.T) {
	ctx := context.Background()
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)
	s := openStore(t, p)
	require.NoError(t, s.CreateTable(ctx, users))

	rng := testutil.NewRNG(21)
	var stored []dht.Token
	for _, key := range rng.Keys(400, 6) {
		tok, err := s.Put(ctx, users, key, []byte{1})
		require.NoError(t, err)
		stored = append(stored, tok)
	}

	ring := []dht.Token{p.RandomToken(), p.RandomToken(), p.RandomToken(), p.RandomToken()}
	p.Sort(ring)
	ring = dedupe(p, ring)

	total := 0
	for _, r := range dht.Ranges(ring) {
		want := 0
		for _, tok := range stored {
			if r.Contains(p, tok) {
				want++
			}
		}
		got, err := s.CountRows(ctx, users, r)
		require.NoError(t, err)
		assert.Equal(t, want, got, "range %s", r)
		total += got
	}
	assert.Equal(t, 400, total)

	all, err := s.CountRows(ctx, users, dht.Range{Left: ring[0], Right: ring[0]})
	require.NoError(t, err)
	assert.Equal(t, 400, all)
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)
	s := openStore(t, p)
	require.NoError(t, s.CreateTable(ctx, users))

	rng := testutil.NewRNG(5)
	for _, key := range rng.Keys(50, 6) {
		_, err := s.Put(ctx, users, key, key[:8])
		require.NoError(t, err)
	}

	full := dht.Range{Left: dht.Minimum(), Right: dht.Minimum()}
	var rows []Row
	require.NoError(t, s.Scan(ctx, users, full, func(r Row) bool {
		rows = append(rows, r)
		return true
	}))
	require.Len(t, rows, 50)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, p.Compare(rows[i-1].Token, rows[i].Token), 0)
	}
	for _, r := range rows {
		assert.Equal(t, r.PartitionKey[:8], r.Value)
	}

	seen := 0
	require.NoError(t, s.Scan(ctx, users, full, func(Row) bool {
		seen++
		return seen < 3
	}))
	assert.Equal(t, 3, seen)
}

func TestSplitCountEstimate(t *testing.T) {
	ctx := context.Background()
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)
	s := openStore(t, p, func(c *Config) { c.KeysPerSplit = 10 })
	require.NoError(t, s.CreateTable(ctx, users))

	full := dht.Range{Left: dht.Minimum(), Right: dht.Minimum()}
	n, err := s.SplitCountEstimate(ctx, users, full)
	require.NoError(t, err)
	assert.Zero(t, n)

	rng := testutil.NewRNG(8)
	for i, key := range rng.Keys(25, 6) {
		_, err := s.Put(ctx, users, key, nil)
		require.NoError(t, err)
		if i == 0 {
			n, err = s.SplitCountEstimate(ctx, users, full)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		}
	}

	n, err = s.SplitCountEstimate(ctx, users, full)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.SplitCountEstimate(ctx, dht.TableRef{Keyspace: "no", Table: "pe"}, full)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestDescribeOwnershipOverStore(t *testing.T) {
	ctx := context.Background()
	bank := newBank(t)
	base, err := dht.NewSimilarityPartitioner(bank)
	require.NoError(t, err)
	s := openStore(t, base, func(c *Config) { c.KeysPerSplit = 1 })
	require.NoError(t, s.CreateTable(ctx, users))

	rng := testutil.NewRNG(13)
	for _, key := range rng.Keys(300, 6) {
		_, err := s.Put(ctx, users, key, nil)
		require.NoError(t, err)
	}

	p, err := dht.NewSimilarityPartitioner(bank, dht.WithCatalog(s))
	require.NoError(t, err)

	ring := make([]dht.Token, 0, 6)
	for range 6 {
		ring = append(ring, p.RandomToken())
	}
	p.Sort(ring)
	ring = dedupe(p, ring)

	own, err := p.DescribeOwnership(ctx, ring)
	require.NoError(t, err)
	var sum float64
	for _, o := range own {
		sum += o.Fraction
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestClosedStore(t *testing.T) {
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)
	s, err := Open(InMemoryConfig(), p)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Tables(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenValidation(t *testing.T) {
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)

	_, err = Open(Config{}, p)
	assert.Error(t, err)
	_, err = Open(InMemoryConfig(), nil)
	assert.Error(t, err)
}

func TestPersistentStore(t *testing.T) {
	ctx := context.Background()
	p, err := dht.NewSimilarityPartitioner(newBank(t))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.SyncWrites = false

	s, err := Open(cfg, p)
	require.NoError(t, err)
	require.NoError(t, s.CreateTable(ctx, users))
	key := hyperplane.EncodeKey([]float64{6, 5, 4, 3, 2, 1})
	_, err = s.Put(ctx, users, key, []byte("kept"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg, p)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.Get(ctx, users, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
}

func dedupe(p dht.Partitioner, sorted []dht.Token) []dht.Token {
	out := sorted[:0]
	for _, tok := range sorted {
		if len(out) > 0 && p.Compare(out[len(out)-1], tok) == 0 {
			continue
		}
		out = append(out, tok)
	}
	return out
}
