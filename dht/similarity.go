package dht

import (
	"context"
	"math/big"
	"slices"
	"time"

	"github.com/mourao666/cassandra-sim/graycode"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/mourao666/cassandra-sim/signature"
)

// SimilarityPartitioner places keys on the ring by random hyperplane
// signature, ordered by Gray-code rank.
//
// All token operations are pure over immutable inputs. Instances are
// independent of each other and safe for concurrent use.
type SimilarityPartitioner struct {
	projector *hyperplane.Projector
	rand      hyperplane.Float64Source
	opts      options
}

var _ Partitioner = (*SimilarityPartitioner)(nil)

// NewSimilarityPartitioner returns a partitioner projecting with bank.
func NewSimilarityPartitioner(bank *hyperplane.Bank, optFns ...Option) (*SimilarityPartitioner, error) {
	projector, err := hyperplane.NewProjector(bank)
	if err != nil {
		return nil, err
	}

	o := applyOptions(optFns)
	p := &SimilarityPartitioner{
		projector: projector,
		rand:      runtimeRand{},
		opts:      o,
	}
	if o.source != nil {
		p.rand = newLockedRand(o.source)
	}
	return p, nil
}

// Bank returns the hyperplane bank.
func (p *SimilarityPartitioner) Bank() *hyperplane.Bank { return p.projector.Bank() }

// Logger returns the configured logger.
func (p *SimilarityPartitioner) Logger() *Logger { return p.opts.logger }

// MinimumToken returns the empty-signature token.
func (p *SimilarityPartitioner) MinimumToken() Token { return Minimum() }

// TokenFor projects key. The empty key maps to the minimum token; shape
// errors from the projector are returned unchanged.
func (p *SimilarityPartitioner) TokenFor(key []byte) (Token, error) {
	if len(key) == 0 {
		return Minimum(), nil
	}

	start := time.Now()
	sig, err := p.projector.Project(key)
	p.opts.metrics.RecordProjection(time.Since(start), err)
	if err != nil {
		p.opts.logger.LogProjection(context.Background(), len(key), Token{}, err)
		return Token{}, err
	}
	return Token{sig: sig}, nil
}

// RandomToken projects a random key of the bank's dimension.
func (p *SimilarityPartitioner) RandomToken() Token {
	sig, err := p.projector.Project(p.projector.RandomKey(p.rand))
	if err != nil {
		// RandomKey always has the bank's shape.
		panic(err)
	}
	return Token{sig: sig}
}

// RandomKey draws a key of the bank's dimension with components in [-1, 1).
func (p *SimilarityPartitioner) RandomKey() []byte {
	return p.projector.RandomKey(p.rand)
}

// Compare orders tokens on the ring. The minimum token sorts first; other
// tokens are ordered by the unsigned value of their Gray-decoded signatures.
func (p *SimilarityPartitioner) Compare(a, b Token) int {
	switch am, bm := a.IsMinimum(), b.IsMinimum(); {
	case am && bm:
		return 0
	case am:
		return -1
	case bm:
		return 1
	}
	return graycode.CompareWords(a.sig.Words(), b.sig.Words())
}

// Sort orders tokens in place by Compare.
func (p *SimilarityPartitioner) Sort(tokens []Token) {
	slices.SortFunc(tokens, p.Compare)
}

// Midpoint returns the token halfway along (left, right].
//
// Both tokens are mapped to their ring position, the Gray-decoded value over
// n = max(byte lengths, 1) bytes. Without wrap the result is the floor of the
// mean. When the range wraps (left >= right) the right position is lifted by
// 2^(8n) before averaging and the result is reduced modulo 2^(8n). The
// position is Gray-encoded back into an n-byte signature.
//
// When no position lies strictly inside the range (the bounds are one
// position apart) the result equals left. Use Split to detect that case.
func (p *SimilarityPartitioner) Midpoint(left, right Token) Token {
	start := time.Now()
	defer func() { p.opts.metrics.RecordMidpoint(time.Since(start)) }()

	n := max(byteLen(left), byteLen(right), 1)
	l, r := position(left), position(right)

	sum := new(big.Int).Add(l, r)
	if p.Compare(left, right) >= 0 {
		modulus := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		sum.Add(sum, modulus)
		sum.Rsh(sum, 1)
		sum.Mod(sum, modulus)
	} else {
		sum.Rsh(sum, 1)
	}
	return fromPosition(sum, n)
}

// TokenFactory returns the wire codecs.
func (p *SimilarityPartitioner) TokenFactory() TokenFactory { return tokenFactory{} }

// PreservesOrder reports true: nearby keys map to nearby tokens.
func (p *SimilarityPartitioner) PreservesOrder() bool { return true }

// DecorateKey pairs key with its token.
func (p *SimilarityPartitioner) DecorateKey(key []byte) (DecoratedKey, error) {
	t, err := p.TokenFor(key)
	if err != nil {
		return DecoratedKey{}, err
	}
	return DecoratedKey{Token: t, Key: slices.Clone(key)}, nil
}

// Position returns the ring position of t as minimal big-endian bytes.
func Position(t Token) []byte {
	return graycode.Rank(t.sig.Words())
}

func byteLen(t Token) int { return (t.sig.Len() + 7) / 8 }

func position(t Token) *big.Int {
	return new(big.Int).SetBytes(Position(t))
}

// fromPosition Gray-encodes pos (which must be below 2^(8n)) into an n-byte
// signature.
func fromPosition(pos *big.Int, n int) Token {
	be := pos.FillBytes(make([]byte, n))
	words := make([]uint64, (n+7)/8)
	for i := range n {
		// be[n-1-i] is byte i of the little-endian value.
		words[i/8] |= uint64(be[n-1-i]) << (8 * (i % 8))
	}
	return Token{sig: signature.FromWords(graycode.BinaryToGrayWords(words), 8*n)}
}

// DecoratedKey is a client key together with its token.
type DecoratedKey struct {
	Token Token
	Key   []byte
}
