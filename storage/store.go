package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/mourao666/cassandra-sim/dht"
)

// Tokenizer maps partition keys to tokens.
type Tokenizer interface {
	TokenFor(key []byte) (dht.Token, error)
}

// Row is one stored row.
type Row struct {
	Token        dht.Token
	PartitionKey []byte
	Value        []byte
}

// Store is a BadgerDB-backed row store. It implements dht.Catalog.
type Store struct {
	db           *badger.DB
	tokenizer    Tokenizer
	keysPerSplit int
	logger       *slog.Logger
	gc           *gcRunner
	closed       atomic.Bool
}

var _ dht.Catalog = (*Store)(nil)

// Open opens the database described by cfg. Partition keys are mapped to
// tokens with tokenizer.
func Open(cfg Config, tokenizer Tokenizer) (*Store, error) {
	if tokenizer == nil {
		return nil, errors.New("storage: tokenizer is required")
	}
	if cfg.KeysPerSplit <= 0 {
		cfg.KeysPerSplit = DefaultConfig().KeysPerSplit
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:           db,
		tokenizer:    tokenizer,
		keysPerSplit: cfg.KeysPerSplit,
		logger:       cfg.Logger,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.gc = startGC(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
	}
	return s, nil
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

// CreateTable registers a table. Creating an existing table is a no-op.
func (s *Store) CreateTable(ctx context.Context, t dht.TableRef) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if !validName(t.Keyspace) || !validName(t.Table) {
		return fmt.Errorf("%w: %q", ErrInvalidName, t)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(schemaKey(t), nil)
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", t, err)
	}
	s.logger.Info("table created", "keyspace", t.Keyspace, "table", t.Table)
	return nil
}

// Tables lists every table, ordered by keyspace then table.
func (s *Store) Tables(ctx context.Context) ([]dht.TableRef, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	tables := []dht.TableRef{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{schemaPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ref, ok := parseSchemaKey(it.Item().Key())
			if !ok {
				return errCorruptKey
			}
			tables = append(tables, ref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Put stores value under partitionKey and returns the row's token.
func (s *Store) Put(ctx context.Context, t dht.TableRef, partitionKey, value []byte) (dht.Token, error) {
	if err := s.check(ctx); err != nil {
		return dht.Token{}, err
	}
	tok, err := s.tokenizer.TokenFor(partitionKey)
	if err != nil {
		return dht.Token{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := requireTable(txn, t); err != nil {
			return err
		}
		return txn.Set(rowKey(t, tok, partitionKey), slices.Clone(value))
	})
	if err != nil {
		return dht.Token{}, fmt.Errorf("put row in %s: %w", t, err)
	}
	return tok, nil
}

// Get returns the value stored under partitionKey.
func (s *Store) Get(ctx context.Context, t dht.TableRef, partitionKey []byte) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	tok, err := s.tokenizer.TokenFor(partitionKey)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.db.View(func(txn *badger.Txn) error {
		if err := requireTable(txn, t); err != nil {
			return err
		}
		item, err := txn.Get(rowKey(t, tok, partitionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get row in %s: %w", t, err)
	}
	return value, nil
}

// Delete removes the row stored under partitionKey. Missing rows are not an
// error.
func (s *Store) Delete(ctx context.Context, t dht.TableRef, partitionKey []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	tok, err := s.tokenizer.TokenFor(partitionKey)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := requireTable(txn, t); err != nil {
			return err
		}
		return txn.Delete(rowKey(t, tok, partitionKey))
	})
	if err != nil {
		return fmt.Errorf("delete row in %s: %w", t, err)
	}
	return nil
}

// Scan calls fn for every row of t in r, in ring order. Returning false from
// fn stops the scan.
func (s *Store) Scan(ctx context.Context, t dht.TableRef, r dht.Range, fn func(Row) bool) error {
	return s.scan(ctx, t, r, true, func(tk, pk, value []byte) bool {
		return fn(Row{Token: s.rowToken(pk), PartitionKey: pk, Value: value})
	})
}

// CountRows returns the number of rows of t in r.
func (s *Store) CountRows(ctx context.Context, t dht.TableRef, r dht.Range) (int, error) {
	n := 0
	err := s.scan(ctx, t, r, false, func(_, _, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

// SplitCountEstimate implements dht.Catalog. An empty range has no splits;
// otherwise the estimate is ceil(rows/KeysPerSplit), at least one.
func (s *Store) SplitCountEstimate(ctx context.Context, t dht.TableRef, r dht.Range) (int, error) {
	rows, err := s.CountRows(ctx, t, r)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, nil
	}
	return max(1, (rows+s.keysPerSplit-1)/s.keysPerSplit), nil
}

// rowToken recomputes the token of a stored partition key.
func (s *Store) rowToken(pk []byte) dht.Token {
	tok, err := s.tokenizer.TokenFor(pk)
	if err != nil {
		return dht.Token{}
	}
	return tok
}

// scan visits the rows of t whose token lies in r. The range (left, right]
// becomes one key interval, or two when it wraps past the minimum token.
func (s *Store) scan(ctx context.Context, t dht.TableRef, r dht.Range, values bool, fn func(tk, pk, value []byte) bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	lo, hi := tokenKey(r.Left), tokenKey(r.Right)
	cmp := bytes.Compare(lo, hi)

	var intervals [][2][]byte // (after, upTo]; nil means unbounded
	switch {
	case cmp < 0:
		intervals = [][2][]byte{{lo, hi}}
	case cmp > 0:
		intervals = [][2][]byte{{lo, nil}, {nil, hi}}
	default:
		intervals = [][2][]byte{{nil, nil}}
	}

	prefix := tablePrefix(t)
	err := s.db.View(func(txn *badger.Txn) error {
		if err := requireTable(txn, t); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = values
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, iv := range intervals {
			after, upTo := iv[0], iv[1]
			it.Rewind()
			if after != nil {
				it.Seek(append(slices.Clone(prefix), after...))
			}
			for ; it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				tk, pk, err := splitRowKey(item.Key()[len(prefix):])
				if err != nil {
					return err
				}
				if after != nil && bytes.Compare(tk, after) <= 0 {
					continue
				}
				if upTo != nil && bytes.Compare(tk, upTo) > 0 {
					break
				}

				var value []byte
				if values {
					if value, err = item.ValueCopy(nil); err != nil {
						return err
					}
				}
				if !fn(slices.Clone(tk), slices.Clone(pk), value) {
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s %s: %w", t, r, err)
	}
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func requireTable(txn *badger.Txn, t dht.TableRef) error {
	_, err := txn.Get(schemaKey(t))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	return err
}
