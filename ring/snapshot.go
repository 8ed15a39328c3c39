package ring

import (
	"context"
	"fmt"

	"github.com/mourao666/cassandra-sim/blobstore"
	"github.com/mourao666/cassandra-sim/codec"
	"github.com/mourao666/cassandra-sim/dht"
)

const snapshotVersion = 1

// Snapshot is the persisted form of a ring.
type Snapshot struct {
	Version int      `json:"version"`
	Entries []Entry  `json:"entries"`
	Down    []string `json:"down,omitempty"`
}

// Snapshot captures the entries and the endpoints currently down.
func (r *Ring) Snapshot() Snapshot {
	return Snapshot{
		Version: snapshotVersion,
		Entries: r.Entries(),
		Down:    r.Down(),
	}
}

// FromSnapshot rebuilds a ring and restores liveness.
func FromSnapshot(p dht.Partitioner, s Snapshot, opts ...Option) (*Ring, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported ring snapshot version %d", s.Version)
	}
	r, err := New(p, s.Entries, opts...)
	if err != nil {
		return nil, err
	}
	for _, name := range s.Down {
		if err := r.MarkDown(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SaveSnapshot writes the ring to store under name using c (codec.Default
// when nil).
func SaveSnapshot(ctx context.Context, store blobstore.Store, name string, r *Ring, c codec.Codec) error {
	data, err := codec.OrDefault(c).Marshal(r.Snapshot())
	if err != nil {
		return fmt.Errorf("encode ring snapshot: %w", err)
	}
	return store.Put(ctx, name, data)
}

// LoadSnapshot reads the ring stored under name.
func LoadSnapshot(ctx context.Context, store blobstore.Store, name string, p dht.Partitioner, c codec.Codec, opts ...Option) (*Ring, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load ring snapshot %q: %w", name, err)
	}
	var s Snapshot
	if err := codec.OrDefault(c).Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode ring snapshot %q: %w", name, err)
	}
	return FromSnapshot(p, s, opts...)
}
