package dht

import "context"

// Partitioner is the capability set the ring needs from a token space.
type Partitioner interface {
	// MinimumToken returns the token that sorts before every other token.
	MinimumToken() Token
	// TokenFor maps a client key to its token.
	TokenFor(key []byte) (Token, error)
	// RandomToken returns a token for a randomly drawn key.
	RandomToken() Token
	// Compare orders tokens on the ring. It returns -1, 0 or +1.
	Compare(a, b Token) int
	// Midpoint returns a token that bisects the range (left, right].
	Midpoint(left, right Token) Token
	// TokenFactory returns the wire codecs for tokens.
	TokenFactory() TokenFactory
	// PreservesOrder reports whether token order tracks key similarity.
	PreservesOrder() bool
	// DescribeOwnership estimates the fraction of stored data each token of
	// a sorted ring owns.
	DescribeOwnership(ctx context.Context, sorted []Token) ([]TokenOwnership, error)
}

// TokenFactory converts tokens to and from their wire forms.
type TokenFactory interface {
	// ToBytes returns the raw form.
	ToBytes(t Token) []byte
	// FromBytes decodes the raw form. Zero bytes is the minimum token.
	FromBytes(b []byte) Token
	// ToString returns the literal form.
	ToString(t Token) string
	// FromString decodes a literal. The empty string is the minimum token.
	FromString(literal string) (Token, error)
	// Validate checks a literal without decoding it.
	Validate(literal string) error
}

// TokenOwnership is the estimated share of data owned by one ring token.
type TokenOwnership struct {
	Token    Token   `json:"token"`
	Fraction float64 `json:"fraction"`
}
