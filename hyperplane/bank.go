package hyperplane

import (
	"math/rand/v2"
	"slices"

	"github.com/mourao666/cassandra-sim/distance"
)

// seedStream is the second PCG word; fixing it makes a bank a pure function
// of (bits, dim, seed).
const seedStream = 0x9E3779B97F4A7C15

// Bank is an immutable set of hyperplane normals, all of the same dimension.
// It is safe for concurrent use.
type Bank struct {
	normals [][]float64
	dim     int
	seed    uint64
	seeded  bool
}

// NewBank builds a bank from explicit normals. The input is copied.
func NewBank(normals [][]float64) (*Bank, error) {
	if len(normals) == 0 {
		return nil, configErrorf("bank has no hyperplanes")
	}
	dim := len(normals[0])
	if dim == 0 {
		return nil, configErrorf("hyperplane 0 has dimension 0")
	}

	copied := make([][]float64, len(normals))
	for i, n := range normals {
		if len(n) != dim {
			return nil, configErrorf("hyperplane %d has dimension %d, expected %d", i, len(n), dim)
		}
		if !distance.Finite(n) {
			return nil, configErrorf("hyperplane %d has a non-finite component", i)
		}
		copied[i] = slices.Clone(n)
	}
	return &Bank{normals: copied, dim: dim}, nil
}

// Generate draws bits unit normals of dimension dim from a PCG source seeded
// with seed. Equal arguments always give equal banks, so nodes that share a
// seed share a bank without exchanging normals.
func Generate(bits, dim int, seed uint64) (*Bank, error) {
	if bits <= 0 {
		return nil, configErrorf("bank needs at least one hyperplane, got %d", bits)
	}
	if dim <= 0 {
		return nil, configErrorf("dimension must be positive, got %d", dim)
	}

	rng := rand.New(rand.NewPCG(seed, seedStream))
	normals := make([][]float64, bits)
	for i := range normals {
		n := make([]float64, dim)
		for {
			for j := range n {
				n[j] = rng.NormFloat64()
			}
			if distance.NormalizeL2InPlace(n) {
				break
			}
		}
		normals[i] = n
	}
	return &Bank{normals: normals, dim: dim, seed: seed, seeded: true}, nil
}

// Bits returns the number of hyperplanes, which is the signature length.
func (b *Bank) Bits() int { return len(b.normals) }

// Dimension returns the number of float64 components per key.
func (b *Bank) Dimension() int { return b.dim }

// KeyLength returns the byte length of a valid key.
func (b *Bank) KeyLength() int { return 8 * b.dim }

// Normal returns a copy of normal i.
func (b *Bank) Normal(i int) []float64 { return slices.Clone(b.normals[i]) }

// Seed returns the generation seed, if the bank was generated.
func (b *Bank) Seed() (uint64, bool) { return b.seed, b.seeded }

// Equal reports whether both banks hold the same normals.
func (b *Bank) Equal(o *Bank) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.dim == o.dim && slices.EqualFunc(b.normals, o.normals, slices.Equal[[]float64])
}
