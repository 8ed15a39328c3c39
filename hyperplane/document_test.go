package hyperplane

import (
	"context"
	"testing"

	"github.com/mourao666/cassandra-sim/blobstore"
	"github.com/mourao666/cassandra-sim/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	bank, err := Generate(32, 6, 11)
	require.NoError(t, err)

	tests := []struct {
		name string
		opts []SaveOption
	}{
		{"default", nil},
		{"json", []SaveOption{WithCodec(codec.JSON{})}},
		{"lz4", []SaveOption{WithCompression(codec.CompressionLZ4)}},
		{"zstd", []SaveOption{WithCodec(codec.GoJSON{}), WithCompression(codec.CompressionZstd)}},
		{"seed only", []SaveOption{WithSeedOnly()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(bank, tt.opts...)
			require.NoError(t, err)

			back, err := Decode(data)
			require.NoError(t, err)
			assert.True(t, bank.Equal(back))

			seed, ok := back.Seed()
			assert.True(t, ok)
			assert.Equal(t, uint64(11), seed)
		})
	}
}

func TestSeedOnlyIsSmaller(t *testing.T) {
	bank, err := Generate(64, 16, 5)
	require.NoError(t, err)

	full, err := Encode(bank)
	require.NoError(t, err)
	compact, err := Encode(bank, WithSeedOnly())
	require.NoError(t, err)
	assert.Less(t, len(compact), len(full))
}

func TestSeedOnlyKeepsExplicitNormals(t *testing.T) {
	bank, err := NewBank(fixedNormals)
	require.NoError(t, err)

	data, err := Encode(bank, WithSeedOnly())
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, bank.Equal(back))

	_, seeded := back.Seed()
	assert.False(t, seeded)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	bank, err := NewBank(fixedNormals)
	require.NoError(t, err)
	data, err := Encode(bank)
	require.NoError(t, err)

	t.Run("checksum", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-2] ^= 0xFF
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] = 'X'
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		_, err = Decode(data[:9])
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 9
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestFromDocument(t *testing.T) {
	seed := uint64(3)

	_, err := FromDocument(Document{Dim: 6, Bits: 8})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	b, err := FromDocument(Document{Dim: 6, Bits: 8, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, 8, b.Bits())

	_, err = FromDocument(Document{Dim: 6, Bits: 9, Normals: fixedNormals})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = FromDocument(Document{Dim: 5, Bits: 8, Normals: fixedNormals})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestPublishAndLoadCurrent(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, _, err := LoadCurrent(ctx, store)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	first, err := Generate(16, 6, 1)
	require.NoError(t, err)
	second, err := Generate(16, 6, 2)
	require.NoError(t, err)

	require.NoError(t, Publish(ctx, store, "banks/1", first))
	require.NoError(t, Publish(ctx, store, "banks/2", second, WithCompression(codec.CompressionZstd)))

	got, name, err := LoadCurrent(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "banks/2", name)
	assert.True(t, second.Equal(got))

	old, err := LoadBank(ctx, store, "banks/1")
	require.NoError(t, err)
	assert.True(t, first.Equal(old))

	_, err = LoadBank(ctx, store, "banks/3")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
