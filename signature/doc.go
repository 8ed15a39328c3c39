// Package signature implements fixed-length binary signatures produced by
// random hyperplane hashing.
//
// A signature is an ordered sequence of bits indexed from 0. It has two wire
// forms:
//
//   - Packed bytes: bit i is stored in byte i/8 at bit position i%8
//     (least-significant bit first). A B-bit signature occupies ceil(B/8)
//     bytes; zero bytes is the empty signature.
//   - Bit string: one '0' or '1' character per bit, index 0 first. The empty
//     string is the empty signature.
//
// Read as an unsigned integer, bit i carries weight 2^i, so the packed bytes
// are the little-endian encoding of that integer. Trailing zero bytes do not
// change the value, which is why two signatures compare equal whenever their
// set bits are equal.
//
// CompareBytes orders packed forms by unsigned lexicographic byte comparison.
// That is a value ordering for storage columns and is unrelated to ring order,
// which lives in package graycode.
package signature
