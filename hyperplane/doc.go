// Package hyperplane maps fixed-dimension float64 keys to binary signatures
// with random hyperplane hashing.
//
// A Bank holds B unit normals of dimension D. Projecting a key sets bit i of
// the signature when the key's dot product with normal i is non-negative.
// Keys that point in similar directions fall on the same side of most
// hyperplanes, so their signatures have a small Hamming distance.
//
// Keys are raw bytes: D big-endian IEEE-754 doubles. DecodeKey and EncodeKey
// convert between the byte and vector forms.
//
// Banks are persisted as self-describing frames (codec name, compression,
// CRC32C) through a blobstore.Store. Publish additionally points the CURRENT
// blob at the saved bank so every node of a ring loads the same one.
package hyperplane
