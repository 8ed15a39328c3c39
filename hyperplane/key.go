package hyperplane

import (
	"encoding/binary"
	"math"
)

// Float64Source yields values uniformly distributed in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Float64Source interface {
	Float64() float64
}

// DecodeKey splits key into big-endian IEEE-754 doubles. The key length must
// be a positive multiple of eight.
func DecodeKey(key []byte) ([]float64, error) {
	if len(key) == 0 || len(key)%8 != 0 {
		return nil, &ErrInvalidKeyShape{Length: len(key), Dimension: len(key) / 8}
	}
	v := make([]float64, len(key)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.BigEndian.Uint64(key[8*i:]))
	}
	return v, nil
}

// EncodeKey is the inverse of DecodeKey.
func EncodeKey(v []float64) []byte {
	key := make([]byte, 8*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint64(key[8*i:], math.Float64bits(x))
	}
	return key
}

// RandomKey draws dim components uniformly from [-1, 1) and encodes them.
func RandomKey(src Float64Source, dim int) []byte {
	v := make([]float64, dim)
	for i := range v {
		v[i] = 2*src.Float64() - 1
	}
	return EncodeKey(v)
}
