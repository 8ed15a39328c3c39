package signature

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"strings"
)

// Signature is an immutable sequence of bits.
//
// The zero value is the empty signature.
type Signature struct {
	data []byte // LSB-first packed bits, len == (n+7)/8
	n    int
}

// FromBits builds a signature whose bit i is bits[i].
func FromBits(bits []bool) Signature {
	data := make([]byte, (len(bits)+7)/8)
	for i, set := range bits {
		if set {
			data[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return Signature{data: data, n: len(bits)}
}

// FromBytes decodes the packed form. The result has 8*len(b) bits.
func FromBytes(b []byte) Signature {
	if len(b) == 0 {
		return Signature{}
	}
	return Signature{data: bytes.Clone(b), n: 8 * len(b)}
}

// FromWords is the inverse of Words. The result has nbits bits; bits of
// words beyond nbits are dropped.
func FromWords(words []uint64, nbits int) Signature {
	if nbits <= 0 {
		return Signature{}
	}
	data := make([]byte, (nbits+7)/8)
	var buf [8]byte
	for w, word := range words {
		if 8*w >= len(data) {
			break
		}
		binary.LittleEndian.PutUint64(buf[:], word)
		copy(data[8*w:], buf[:])
	}
	if r := nbits % 8; r != 0 {
		data[len(data)-1] &= byte(1<<r) - 1
	}
	return Signature{data: data, n: nbits}
}

// Len returns the number of bits.
func (s Signature) Len() int { return s.n }

// IsEmpty reports whether the signature has no bits.
func (s Signature) IsEmpty() bool { return s.n == 0 }

// Bit reports whether bit i is set. Bits beyond Len are unset.
func (s Signature) Bit(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	return s.data[i/8]&(1<<(uint(i)%8)) != 0
}

// Bytes returns the packed form, ceil(Len/8) bytes.
func (s Signature) Bytes() []byte {
	if s.n == 0 {
		return []byte{}
	}
	return bytes.Clone(s.data)
}

// Words returns the bits as little-endian 64-bit words: bit i of the
// signature is bit i%64 of word i/64.
func (s Signature) Words() []uint64 {
	words := make([]uint64, (len(s.data)+7)/8)
	var buf [8]byte
	for w := range words {
		clear(buf[:])
		copy(buf[:], s.data[w*8:])
		words[w] = binary.LittleEndian.Uint64(buf[:])
	}
	return words
}

// OnesCount returns the number of set bits.
func (s Signature) OnesCount() int {
	var c int
	for _, b := range s.data {
		c += bits.OnesCount8(b)
	}
	return c
}

// Equal reports whether s and o have the same set bits. Length differences
// made of unset bits are ignored.
func (s Signature) Equal(o Signature) bool {
	return bytes.Equal(trimZero(s.data), trimZero(o.data))
}

// String returns the bit string, index 0 first.
func (s Signature) String() string {
	var sb strings.Builder
	sb.Grow(s.n)
	for i := range s.n {
		if s.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler using the bit string.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Parse decodes a bit string. The empty string yields the empty signature.
func Parse(literal string) (Signature, error) {
	if err := Validate(literal); err != nil {
		return Signature{}, err
	}
	data := make([]byte, (len(literal)+7)/8)
	for i := 0; i < len(literal); i++ {
		if literal[i] == '1' {
			data[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return Signature{data: data, n: len(literal)}, nil
}

// Validate checks that literal consists only of '0' and '1'.
func Validate(literal string) error {
	for i := 0; i < len(literal); i++ {
		if c := literal[i]; c != '0' && c != '1' {
			return &ErrMalformedToken{Literal: literal, Offset: i}
		}
	}
	return nil
}

// CompareBytes orders packed forms by unsigned lexicographic comparison.
// It returns -1, 0 or +1.
func CompareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}

// HammingDistance returns the number of bit positions at which a and b
// differ. The shorter signature is treated as zero-extended.
func HammingDistance(a, b Signature) int {
	wa, wb := a.Words(), b.Words()
	if len(wa) < len(wb) {
		wa, wb = wb, wa
	}
	var dist int
	for i, w := range wa {
		if i < len(wb) {
			w ^= wb[i]
		}
		dist += bits.OnesCount64(w)
	}
	return dist
}

func trimZero(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}
