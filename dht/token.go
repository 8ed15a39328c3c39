package dht

import (
	"unsafe"

	"github.com/mourao666/cassandra-sim/signature"
)

// Token is a position on the ring. It wraps one signature; the empty
// signature is the minimum token.
//
// Tokens are values and are never mutated after construction.
type Token struct {
	sig signature.Signature
}

// NewToken wraps sig.
func NewToken(sig signature.Signature) Token { return Token{sig: sig} }

// Minimum returns the minimum token.
func Minimum() Token { return Token{} }

// Signature returns the wrapped signature.
func (t Token) Signature() signature.Signature { return t.sig }

// IsMinimum reports whether t is the minimum token.
func (t Token) IsMinimum() bool { return t.sig.IsEmpty() }

// Bytes returns the raw wire form: the packed signature, empty for the
// minimum token.
func (t Token) Bytes() []byte { return t.sig.Bytes() }

// Equal reports whether t and o denote the same token. The minimum token is
// equal only to itself; other tokens are equal when their set bits are.
func (t Token) Equal(o Token) bool {
	if t.IsMinimum() || o.IsMinimum() {
		return t.IsMinimum() == o.IsMinimum()
	}
	return t.sig.Equal(o.sig)
}

// String returns the literal wire form, index 0 first.
func (t Token) String() string { return t.sig.String() }

// MarshalText encodes the token as its literal.
func (t Token) MarshalText() ([]byte, error) { return t.sig.MarshalText() }

// UnmarshalText decodes a literal.
func (t *Token) UnmarshalText(text []byte) error { return t.sig.UnmarshalText(text) }

var emptyTokenSize = int64(unsafe.Sizeof(Token{}))

// HeapSize estimates the bytes retained by t, for memtable accounting.
func (t Token) HeapSize() int64 {
	return emptyTokenSize + int64((t.sig.Len()+7)/8)
}
