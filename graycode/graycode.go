// Package graycode implements the reflected binary Gray code and the ring
// order derived from it.
//
// Adjacent values in Gray order differ in exactly one bit, so sorting
// signatures by their Gray-decoded value keeps signatures with small Hamming
// distance close together more often than plain binary order does.
//
// Multi-word values are little-endian slices of uint64: words[0] holds bits
// 0..63. Operands of different length are zero-padded on the most
// significant side.
package graycode

import (
	"encoding/binary"
	"slices"
)

// BinaryToGray returns the Gray code of b.
func BinaryToGray(b uint64) uint64 {
	return b ^ (b >> 1)
}

// GrayToBinary inverts BinaryToGray.
func GrayToBinary(g uint64) uint64 {
	for shift := uint(1); shift < 64; shift <<= 1 {
		g ^= g >> shift
	}
	return g
}

// Compare decodes both Gray codes and compares the results as unsigned
// integers. It returns -1, 0 or +1.
func Compare(g1, g2 uint64) int {
	b1, b2 := GrayToBinary(g1), GrayToBinary(g2)
	switch {
	case b1 < b2:
		return -1
	case b1 > b2:
		return 1
	default:
		return 0
	}
}

// BinaryToGrayWords is the multi-word form of BinaryToGray.
func BinaryToGrayWords(b []uint64) []uint64 {
	g := make([]uint64, len(b))
	for w := range b {
		g[w] = b[w] ^ (b[w] >> 1)
		if w+1 < len(b) {
			g[w] ^= b[w+1] << 63
		}
	}
	return g
}

// GrayToBinaryWords is the multi-word form of GrayToBinary. Binary bit k is
// the parity of Gray bits k and above, so decoding runs from the most
// significant word down and carries the parity of everything above.
func GrayToBinaryWords(g []uint64) []uint64 {
	b := make([]uint64, len(g))
	var carry uint64
	for w := len(g) - 1; w >= 0; w-- {
		b[w] = GrayToBinary(g[w]) ^ -carry
		carry = b[w] & 1
	}
	return b
}

// CompareWords compares two multi-word Gray codes by their decoded values.
func CompareWords(g1, g2 []uint64) int {
	return compareBinary(GrayToBinaryWords(g1), GrayToBinaryWords(g2))
}

// Rank returns the decoded value of a multi-word Gray code as minimal
// big-endian bytes. Zero yields an empty slice.
func Rank(g []uint64) []byte {
	b := GrayToBinaryWords(g)
	out := make([]byte, 8*len(b))
	for w := range b {
		binary.BigEndian.PutUint64(out[8*(len(b)-1-w):], b[w])
	}
	i := 0
	for i < len(out) && out[i] == 0 {
		i++
	}
	return slices.Clone(out[i:])
}

func compareBinary(a, b []uint64) int {
	n := max(len(a), len(b))
	for w := n - 1; w >= 0; w-- {
		var x, y uint64
		if w < len(a) {
			x = a[w]
		}
		if w < len(b) {
			y = b[w]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}
