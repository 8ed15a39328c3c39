package blobstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheEntries bounds a CachingStore created with maxEntries <= 0.
const DefaultCacheEntries = 64

// prefetchConcurrency caps the number of concurrent reads in Prefetch.
const prefetchConcurrency = 8

// CachingStore is a read-through cache in front of another Store. Put and
// Delete through the wrapper invalidate the cached copy; changes made to the
// inner store directly are not observed.
type CachingStore struct {
	inner Store
	cache *ristretto.Cache[string, []byte]
}

var _ Store = (*CachingStore)(nil)

// NewCachingStore caches up to maxEntries blobs of inner. Each blob costs one
// unit regardless of its size, since banks and ring snapshots are small.
func NewCachingStore(inner Store, maxEntries int) (*CachingStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        int64(maxEntries) * 10,
		MaxCost:            int64(maxEntries),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("blob cache: %w", err)
	}
	return &CachingStore{inner: inner, cache: cache}, nil
}

// Get implements Store.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.cache.Get(name); ok {
		return slices.Clone(data), nil
	}

	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.cache.Set(name, slices.Clone(data), 1) {
		s.cache.Wait()
	}
	return data, nil
}

// Put implements Store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Del(name)
	return s.inner.Put(ctx, name, data)
}

// Delete implements Store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Del(name)
	return s.inner.Delete(ctx, name)
}

// List implements Store. Listings are never cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Prefetch warms the cache with names. Missing blobs are skipped.
func (s *CachingStore) Prefetch(ctx context.Context, names ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)

	for _, name := range names {
		g.Go(func() error {
			if _, err := s.Get(gctx, name); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases the cache. The inner store is left open.
func (s *CachingStore) Close() {
	s.cache.Close()
}
