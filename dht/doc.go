// Package dht exposes the similarity token space to a ring-partitioned
// store.
//
// A Token wraps a hyperplane signature. SimilarityPartitioner maps client keys
// to tokens, orders tokens by the Gray-decoded value of their signatures,
// bisects ranges, converts tokens to and from their wire forms and estimates
// how much data each token of a ring owns.
//
// # Ordering
//
// The minimum token (empty signature) sorts before every other token,
// including all-zero signatures. Other tokens compare by the unsigned integer
// obtained by Gray-decoding the signature, with bit i of the signature
// carrying weight 2^i. Signatures of different length are zero-extended on
// the most significant side.
//
// # Wire forms
//
//   - Raw: ceil(B/8) packed bytes, least-significant bit first; zero bytes is
//     the minimum token.
//   - Literal: one '0'/'1' character per bit, index 0 first; the empty
//     string is the minimum token.
//
// # Ownership
//
// DescribeOwnership asks a Catalog for split-count estimates of every
// (table, range) pair, sums them per ring token and normalises. Queries fan
// out on an errgroup, may be rate limited and run under an OpenTelemetry
// span.
package dht
