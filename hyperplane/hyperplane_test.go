package hyperplane

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/mourao666/cassandra-sim/distance"
	"github.com/mourao666/cassandra-sim/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNormals = [][]float64{
	{-0.1, -0.9, -0.6, 0.5, 0.5, -0.8},
	{0.8, 0.7, -0.6, -0.5, 0, -0.8},
	{0, 0.1, 0.6, -0.9, -0.7, -0.3},
	{0.4, -0.5, 0.1, -0.8, 0.2, 0},
	{-0.7, -0.8, -0.7, 0, 0.2, -0.9},
	{0.1, 0.5, 0.4, -0.1, -0.7, 0.6},
	{-0.5, 0.5, 0.1, -0.7, 0.4, 0.3},
	{0.4, 0.3, -0.2, 0, 0.1, -0.5},
}

func fixedProjector(t *testing.T) *Projector {
	t.Helper()
	bank, err := NewBank(fixedNormals)
	require.NoError(t, err)
	p, err := NewProjector(bank)
	require.NoError(t, err)
	return p
}

func TestProjectFixedBank(t *testing.T) {
	p := fixedProjector(t)
	vec := []float64{10, 5, 6, 1, 0, 2}

	sig, err := p.Project(EncodeKey(vec))
	require.NoError(t, err)
	require.Equal(t, 8, sig.Len())

	for i, n := range fixedNormals {
		assert.Equal(t, distance.Dot(vec, n) >= 0, sig.Bit(i), "bit %d", i)
	}
	assert.Equal(t, "01110101", sig.String())
}

func TestProjectVectorMatchesProject(t *testing.T) {
	p := fixedProjector(t)
	rng := rand.New(rand.NewPCG(1, 1))

	for range 50 {
		key := p.RandomKey(rng)
		v, err := DecodeKey(key)
		require.NoError(t, err)

		a, err := p.Project(key)
		require.NoError(t, err)
		b, err := p.ProjectVector(v)
		require.NoError(t, err)
		assert.True(t, a.Equal(b))
	}
}

func TestProjectTiesAndNaN(t *testing.T) {
	bank, err := NewBank([][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	p, err := NewProjector(bank)
	require.NoError(t, err)

	sig, err := p.Project(EncodeKey([]float64{0, 0}))
	require.NoError(t, err)
	assert.Equal(t, "11", sig.String())

	// NaN*0 is NaN, so every dot product with a NaN component is NaN.
	sig, err = p.Project(EncodeKey([]float64{math.NaN(), 1}))
	require.NoError(t, err)
	assert.Equal(t, "00", sig.String())
}

func TestProjectInvalidKeyShape(t *testing.T) {
	p := fixedProjector(t)

	tests := []struct {
		name string
		key  []byte
	}{
		{"empty", nil},
		{"not multiple of eight", make([]byte, 47)},
		{"wrong dimension", make([]byte, 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Project(tt.key)
			var shape *ErrInvalidKeyShape
			require.ErrorAs(t, err, &shape)
			assert.Equal(t, len(tt.key), shape.Length)
			assert.Equal(t, 6, shape.Dimension)
			assert.ErrorIs(t, err, ErrKeyShape)
		})
	}

	_, err := p.ProjectVector([]float64{1})
	assert.ErrorIs(t, err, ErrKeyShape)
}

func TestNewBankValidation(t *testing.T) {
	tests := []struct {
		name    string
		normals [][]float64
	}{
		{"no hyperplanes", nil},
		{"zero dimension", [][]float64{{}}},
		{"ragged", [][]float64{{1, 2}, {1}}},
		{"nan", [][]float64{{1, math.NaN()}}},
		{"inf", [][]float64{{math.Inf(1), 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBank(tt.normals)
			var cfg *ErrConfiguration
			require.ErrorAs(t, err, &cfg)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	_, err := NewProjector(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewBankCopiesInput(t *testing.T) {
	normals := [][]float64{{1, 2}}
	bank, err := NewBank(normals)
	require.NoError(t, err)

	normals[0][0] = 99
	assert.Equal(t, []float64{1, 2}, bank.Normal(0))

	n := bank.Normal(0)
	n[1] = 99
	assert.Equal(t, []float64{1, 2}, bank.Normal(0))
}

func TestGenerate(t *testing.T) {
	a, err := Generate(64, 12, 42)
	require.NoError(t, err)
	b, err := Generate(64, 12, 42)
	require.NoError(t, err)
	c, err := Generate(64, 12, 43)
	require.NoError(t, err)

	assert.Equal(t, 64, a.Bits())
	assert.Equal(t, 12, a.Dimension())
	assert.Equal(t, 96, a.KeyLength())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	seed, ok := a.Seed()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), seed)

	for i := range a.Bits() {
		n := a.Normal(i)
		assert.InDelta(t, 1.0, distance.Norm(n), 1e-9)
	}

	_, err = Generate(0, 6, 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = Generate(8, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestKeyCodec(t *testing.T) {
	v := []float64{10, -5.5, 0, math.MaxFloat64}
	key := EncodeKey(v)
	require.Len(t, key, 32)
	assert.Equal(t, byte(0x40), key[0]) // 10.0 = 0x4024000000000000

	back, err := DecodeKey(key)
	require.NoError(t, err)
	assert.Equal(t, v, back)

	_, err = DecodeKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrKeyShape)
}

func TestRandomKey(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for range 100 {
		v, err := DecodeKey(RandomKey(rng, 6))
		require.NoError(t, err)
		require.Len(t, v, 6)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, -1.0)
			assert.Less(t, x, 1.0)
		}
	}
}

func TestSimilarKeysShareMostBits(t *testing.T) {
	bank, err := Generate(256, 16, 3)
	require.NoError(t, err)
	p, err := NewProjector(bank)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(9, 9))
	base, err := DecodeKey(p.RandomKey(rng))
	require.NoError(t, err)
	near := make([]float64, len(base))
	far := make([]float64, len(base))
	for i, x := range base {
		near[i] = x + 0.01
		far[i] = -x
	}

	sb, _ := p.ProjectVector(base)
	sn, _ := p.ProjectVector(near)
	sf, _ := p.ProjectVector(far)

	assert.Less(t, signature.HammingDistance(sb, sn), signature.HammingDistance(sb, sf))
}
