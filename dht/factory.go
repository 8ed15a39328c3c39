package dht

import "github.com/mourao666/cassandra-sim/signature"

type tokenFactory struct{}

func (tokenFactory) ToBytes(t Token) []byte { return t.Bytes() }

func (tokenFactory) FromBytes(b []byte) Token { return Token{sig: signature.FromBytes(b)} }

func (tokenFactory) ToString(t Token) string { return t.String() }

func (tokenFactory) FromString(literal string) (Token, error) {
	sig, err := signature.Parse(literal)
	if err != nil {
		return Token{}, err
	}
	return Token{sig: sig}, nil
}

func (tokenFactory) Validate(literal string) error { return signature.Validate(literal) }
