package hyperplane

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mourao666/cassandra-sim/blobstore"
	"github.com/mourao666/cassandra-sim/codec"
	"github.com/mourao666/cassandra-sim/internal/hash"
)

// Document is the persisted form of a bank.
//
// A seeded bank may omit Normals; it is then regenerated from (Bits, Dim,
// Seed) on load.
type Document struct {
	Dim     int         `json:"dim"`
	Bits    int         `json:"bits"`
	Seed    *uint64     `json:"seed,omitempty"`
	Normals [][]float64 `json:"normals,omitempty"`
}

// Document returns the persisted form of b, including its normals.
func (b *Bank) Document() Document {
	d := Document{Dim: b.dim, Bits: len(b.normals), Normals: make([][]float64, len(b.normals))}
	for i := range b.normals {
		d.Normals[i] = b.Normal(i)
	}
	if b.seeded {
		seed := b.seed
		d.Seed = &seed
	}
	return d
}

// FromDocument rebuilds a bank and checks that the declared shape matches.
func FromDocument(d Document) (*Bank, error) {
	if len(d.Normals) == 0 {
		if d.Seed == nil {
			return nil, configErrorf("document has neither normals nor seed")
		}
		return Generate(d.Bits, d.Dim, *d.Seed)
	}

	bank, err := NewBank(d.Normals)
	if err != nil {
		return nil, err
	}
	if d.Bits != 0 && d.Bits != bank.Bits() {
		return nil, configErrorf("document declares %d hyperplanes but holds %d", d.Bits, bank.Bits())
	}
	if d.Dim != 0 && d.Dim != bank.Dimension() {
		return nil, configErrorf("document declares dimension %d but normals have %d", d.Dim, bank.Dimension())
	}
	if d.Seed != nil {
		bank.seed, bank.seeded = *d.Seed, true
	}
	return bank, nil
}

// Frame layout:
//
//	magic[4] "SIMB" | version u8 | compression u8 | codecLen u8 | codec | crc32c u32 | payloadLen u32 | payload
//
// Integers are little-endian. The checksum covers the stored (possibly
// compressed) payload.
var frameMagic = [4]byte{'S', 'I', 'M', 'B'}

const frameVersion = 1

type saveOptions struct {
	codec       codec.Codec
	compression codec.Compression
	omitNormals bool
}

// SaveOption configures Encode and SaveBank.
type SaveOption func(*saveOptions)

// WithCodec selects the document codec. Default: codec.Default.
func WithCodec(c codec.Codec) SaveOption {
	return func(o *saveOptions) { o.codec = c }
}

// WithCompression compresses the encoded document.
func WithCompression(c codec.Compression) SaveOption {
	return func(o *saveOptions) { o.compression = c }
}

// WithSeedOnly stores only the seed of a generated bank. It has no effect on
// banks built from explicit normals.
func WithSeedOnly() SaveOption {
	return func(o *saveOptions) { o.omitNormals = true }
}

// Encode serializes b into a self-describing frame.
func Encode(b *Bank, opts ...SaveOption) ([]byte, error) {
	o := saveOptions{codec: codec.Default}
	for _, fn := range opts {
		fn(&o)
	}

	doc := b.Document()
	if o.omitNormals && doc.Seed != nil {
		doc.Normals = nil
	}

	payload, err := o.codec.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode bank: %w", err)
	}
	payload, err = codec.Compress(o.compression, payload)
	if err != nil {
		return nil, fmt.Errorf("compress bank: %w", err)
	}

	name := o.codec.Name()
	var buf bytes.Buffer
	buf.Grow(4 + 3 + len(name) + 8 + len(payload))
	buf.Write(frameMagic[:])
	buf.WriteByte(frameVersion)
	buf.WriteByte(byte(o.compression))
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.Write(hash.AppendSum(nil, payload))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(payload))))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode parses a frame produced by Encode.
func Decode(data []byte) (*Bank, error) {
	if len(data) < 7 || !bytes.Equal(data[:4], frameMagic[:]) {
		return nil, configErrorf("not a hyperplane bank frame")
	}
	if data[4] != frameVersion {
		return nil, configErrorf("unsupported bank frame version %d", data[4])
	}
	compression := codec.Compression(data[5])
	nameLen := int(data[6])
	rest := data[7:]
	if len(rest) < nameLen+8 {
		return nil, configErrorf("truncated bank frame")
	}

	name := string(rest[:nameLen])
	c, ok := codec.ByName(name)
	if !ok {
		return nil, configErrorf("unknown codec %q", name)
	}
	rest = rest[nameLen:]
	sum := binary.LittleEndian.Uint32(rest)
	size := binary.LittleEndian.Uint32(rest[4:])
	payload := rest[8:]
	if uint32(len(payload)) != size {
		return nil, configErrorf("bank payload is %d bytes, header says %d", len(payload), size)
	}
	if !hash.Verify(payload, sum) {
		return nil, ErrChecksum
	}

	raw, err := codec.Decompress(compression, payload)
	if err != nil {
		return nil, &ErrConfiguration{Reason: "decompress bank", cause: err}
	}
	var doc Document
	if err := c.Unmarshal(raw, &doc); err != nil {
		return nil, &ErrConfiguration{Reason: "decode bank", cause: err}
	}
	return FromDocument(doc)
}

// SaveBank writes b to store under name.
func SaveBank(ctx context.Context, store blobstore.Store, name string, b *Bank, opts ...SaveOption) error {
	data, err := Encode(b, opts...)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// LoadBank reads the bank stored under name.
func LoadBank(ctx context.Context, store blobstore.Store, name string) (*Bank, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load bank %q: %w", name, err)
	}
	return Decode(data)
}

// Publish saves b under name and points CURRENT at it.
func Publish(ctx context.Context, store blobstore.Store, name string, b *Bank, opts ...SaveOption) error {
	if err := SaveBank(ctx, store, name, b, opts...); err != nil {
		return err
	}
	return store.Put(ctx, blobstore.CurrentName, []byte(name))
}

// LoadCurrent loads the bank CURRENT points at and returns it with its name.
func LoadCurrent(ctx context.Context, store blobstore.Store) (*Bank, string, error) {
	name, err := store.Get(ctx, blobstore.CurrentName)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", blobstore.CurrentName, err)
	}
	b, err := LoadBank(ctx, store, string(name))
	if err != nil {
		return nil, "", err
	}
	return b, string(name), nil
}
