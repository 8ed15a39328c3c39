package ring

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mourao666/cassandra-sim/dht"
)

// Entry is one token claimed by an endpoint.
type Entry struct {
	Endpoint string    `json:"endpoint"`
	Token    dht.Token `json:"token"`
}

// Option configures a Ring.
type Option func(*Ring)

// WithLogger sets the logger used for liveness changes.
func WithLogger(l *dht.Logger) Option {
	return func(r *Ring) {
		if l != nil {
			r.logger = l
		}
	}
}

// Ring is a token ring sorted by a partitioner.
type Ring struct {
	p         dht.Partitioner
	entries   []Entry
	endpoints map[string][]uint32
	logger    *dht.Logger

	mu   sync.RWMutex
	live *roaring.Bitmap
}

// New sorts entries by token and returns the ring. All endpoints start live.
// Two entries with the same token are rejected.
func New(p dht.Partitioner, entries []Entry, opts ...Option) (*Ring, error) {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return p.Compare(a.Token, b.Token) })

	r := &Ring{
		p:         p,
		entries:   sorted,
		endpoints: make(map[string][]uint32),
		logger:    dht.NoopLogger(),
		live:      roaring.New(),
	}
	for _, fn := range opts {
		fn(r)
	}

	for i, e := range sorted {
		if e.Endpoint == "" {
			return nil, fmt.Errorf("ring entry %d (%s) has no endpoint", i, e.Token)
		}
		if i > 0 && p.Compare(sorted[i-1].Token, e.Token) == 0 {
			return nil, fmt.Errorf("%w %s claimed by %s and %s", ErrDuplicateToken, e.Token, sorted[i-1].Endpoint, e.Endpoint)
		}
		r.endpoints[e.Endpoint] = append(r.endpoints[e.Endpoint], uint32(i))
	}
	r.live.AddRange(0, uint64(len(sorted)))
	return r, nil
}

// Partitioner returns the partitioner ordering the ring.
func (r *Ring) Partitioner() dht.Partitioner { return r.p }

// Len returns the number of tokens.
func (r *Ring) Len() int { return len(r.entries) }

// Entries returns a copy of the entries in ring order.
func (r *Ring) Entries() []Entry { return slices.Clone(r.entries) }

// Endpoints returns the endpoint names in sorted order.
func (r *Ring) Endpoints() []string {
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedTokens returns all tokens in ring order.
func (r *Ring) SortedTokens() []dht.Token {
	tokens := make([]dht.Token, len(r.entries))
	for i, e := range r.entries {
		tokens[i] = e.Token
	}
	return tokens
}

// LiveTokens returns the tokens of live endpoints in ring order.
func (r *Ring) LiveTokens() []dht.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]dht.Token, 0, r.live.GetCardinality())
	it := r.live.Iterator()
	for it.HasNext() {
		tokens = append(tokens, r.entries[it.Next()].Token)
	}
	return tokens
}

// Ranges returns the range owned by each token, in ring order.
func (r *Ring) Ranges() []dht.Range {
	return dht.Ranges(r.SortedTokens())
}

// Owner returns the entry owning key: the first token not less than the
// key's token, wrapping to the first entry.
func (r *Ring) Owner(key []byte) (Entry, error) {
	tok, err := r.p.TokenFor(key)
	if err != nil {
		return Entry{}, err
	}
	return r.OwnerOf(tok)
}

// OwnerOf returns the entry owning tok.
func (r *Ring) OwnerOf(tok dht.Token) (Entry, error) {
	if len(r.entries) == 0 {
		return Entry{}, ErrEmptyRing
	}
	return r.entries[r.search(tok)], nil
}

// LiveOwner is Owner restricted to live endpoints.
func (r *Ring) LiveOwner(key []byte) (Entry, error) {
	tok, err := r.p.TokenFor(key)
	if err != nil {
		return Entry{}, err
	}
	return r.LiveOwnerOf(tok)
}

// LiveOwnerOf walks clockwise from the entry owning tok to the first live
// one.
func (r *Ring) LiveOwnerOf(tok dht.Token) (Entry, error) {
	if len(r.entries) == 0 {
		return Entry{}, ErrEmptyRing
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.live.IsEmpty() {
		return Entry{}, ErrNoLiveEndpoint
	}
	it := r.live.Iterator()
	it.AdvanceIfNeeded(uint32(r.search(tok)))
	if it.HasNext() {
		return r.entries[it.Next()], nil
	}
	return r.entries[r.live.Minimum()], nil
}

func (r *Ring) search(tok dht.Token) int {
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.p.Compare(r.entries[i].Token, tok) >= 0
	})
	if i == len(r.entries) {
		return 0
	}
	return i
}

// MarkDown marks every token of endpoint as unavailable.
func (r *Ring) MarkDown(endpoint string) error {
	return r.setLive(endpoint, false)
}

// MarkUp marks every token of endpoint as available.
func (r *Ring) MarkUp(endpoint string) error {
	return r.setLive(endpoint, true)
}

func (r *Ring) setLive(endpoint string, up bool) error {
	idx, ok := r.endpoints[endpoint]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	r.mu.Lock()
	if up {
		r.live.AddMany(idx)
	} else {
		for _, i := range idx {
			r.live.Remove(i)
		}
	}
	r.mu.Unlock()

	r.logger.Info("endpoint liveness changed", "endpoint", endpoint, "up", up, "tokens", len(idx))
	return nil
}

// IsLive reports whether endpoint has at least one live token.
func (r *Ring) IsLive(endpoint string) bool {
	idx, ok := r.endpoints[endpoint]
	if !ok {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, i := range idx {
		if r.live.Contains(i) {
			return true
		}
	}
	return false
}

// Down returns the endpoints with no live token, sorted.
func (r *Ring) Down() []string {
	var down []string
	for _, name := range r.Endpoints() {
		if !r.IsLive(name) {
			down = append(down, name)
		}
	}
	return down
}

// Ownership describes the estimated data share of every token.
func (r *Ring) Ownership(ctx context.Context) ([]dht.TokenOwnership, error) {
	return r.p.DescribeOwnership(ctx, r.SortedTokens())
}

// SuggestToken returns a token for a joining endpoint: the midpoint of the
// range holding the largest share of data. Ranges too narrow to split are
// skipped in favour of the next heaviest; ErrNoSplit is returned when no
// range with data can be split.
func (r *Ring) SuggestToken(ctx context.Context) (dht.Token, error) {
	if len(r.entries) == 0 {
		return dht.Token{}, ErrEmptyRing
	}
	ownership, err := r.Ownership(ctx)
	if err != nil {
		return dht.Token{}, fmt.Errorf("describe ownership: %w", err)
	}

	ranges := r.Ranges()
	order := make([]int, len(ownership))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(ownership[b].Fraction, ownership[a].Fraction)
	})

	for _, i := range order {
		if ownership[i].Fraction == 0 {
			break
		}
		tok, err := dht.Split(r.p, ranges[i])
		if errors.Is(err, dht.ErrNoSplit) {
			r.logger.Debug("range too narrow to split", "range", ranges[i].String())
			continue
		}
		return tok, err
	}
	return dht.Token{}, ErrNoSplit
}
