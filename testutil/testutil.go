package testutil

import (
	"math/rand/v2"
	"sync"

	"github.com/mourao666/cassandra-sim/hyperplane"
)

// FixedNormals is an 8-hyperplane bank over 6 dimensions with hand-picked
// coefficients.
var FixedNormals = [][]float64{
	{-0.1, -0.9, -0.6, 0.5, 0.5, -0.8},
	{0.8, 0.7, -0.6, -0.5, 0, -0.8},
	{0, 0.1, 0.6, -0.9, -0.7, -0.3},
	{0.4, -0.5, 0.1, -0.8, 0.2, 0},
	{-0.7, -0.8, -0.7, 0, 0.2, -0.9},
	{0.1, 0.5, 0.4, -0.1, -0.7, 0.6},
	{-0.5, 0.5, 0.1, -0.7, 0.4, 0.3},
	{0.4, 0.3, -0.2, 0, 0.1, -0.5},
}

// FixedVector projects to FixedSignature under FixedNormals.
var FixedVector = []float64{10, 5, 6, 1, 0, 2}

// FixedSignature is the literal of FixedVector's signature under
// FixedNormals; its hex form is "ae".
const FixedSignature = "01110101"

// FixedKey returns FixedVector in the partition-key wire layout.
func FixedKey() []byte { return hyperplane.EncodeKey(FixedVector) }

// RNG is a seeded random source safe for concurrent use. It satisfies
// hyperplane.Float64Source.
type RNG struct {
	mu   sync.Mutex
	rand *rand.Rand
}

var _ hyperplane.Float64Source = (*RNG)(nil)

// NewRNG returns an RNG whose sequence is fixed by seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{rand: rand.New(rand.NewPCG(seed, seed))}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Vectors returns num vectors of dim components drawn from [-1, 1). The
// vectors share one backing array.
func (r *RNG) Vectors(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	out := make([][]float64, num)
	for i := range out {
		v := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range v {
			v[j] = r.rand.Float64()*2 - 1
		}
		out[i] = v
	}
	return out
}

// Keys returns num encoded partition keys of dim components in [-1, 1).
func (r *RNG) Keys(num, dim int) [][]byte {
	return encode(r.Vectors(num, dim))
}

// Jittered returns n copies of center, each component moved by a normal
// offset with standard deviation spread.
func (r *RNG) Jittered(center []float64, n int, spread float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]float64, n)
	for i := range out {
		v := make([]float64, len(center))
		for j, c := range center {
			v[j] = c + r.rand.NormFloat64()*spread
		}
		out[i] = v
	}
	return out
}

// JitteredKeys encodes the output of Jittered.
func (r *RNG) JitteredKeys(center []float64, n int, spread float64) [][]byte {
	return encode(r.Jittered(center, n, spread))
}

func encode(vectors [][]float64) [][]byte {
	keys := make([][]byte, len(vectors))
	for i, v := range vectors {
		keys[i] = hyperplane.EncodeKey(v)
	}
	return keys
}
