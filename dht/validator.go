package dht

import "github.com/mourao666/cassandra-sim/signature"

// TokenValidator describes token values stored as a column type: packed
// bytes ordered by unsigned byte comparison, with the literal as the
// human-readable form.
type TokenValidator struct{}

// Compare orders packed values. This is value order, not ring order.
func (TokenValidator) Compare(a, b []byte) int { return signature.CompareBytes(a, b) }

// FromString parses a literal into packed bytes.
func (TokenValidator) FromString(literal string) ([]byte, error) {
	sig, err := signature.Parse(literal)
	if err != nil {
		return nil, err
	}
	return sig.Bytes(), nil
}

// GetString renders packed bytes as a literal.
func (TokenValidator) GetString(b []byte) string {
	return signature.FromBytes(b).String()
}

// Validate accepts any byte string: every packing is a valid signature, and
// an empty value (nil or zero-length) is the minimum token.
func (TokenValidator) Validate([]byte) error { return nil }
