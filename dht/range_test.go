package dht

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeContains(t *testing.T) {
	p := fixedPartitioner(t)
	t10, t20, t30 := tokenAt(10, 1), tokenAt(20, 1), tokenAt(30, 1)

	plain := Range{Left: t10, Right: t20}
	assert.False(t, plain.IsWrapAround(p))
	assert.True(t, plain.Contains(p, t20))
	assert.True(t, plain.Contains(p, tokenAt(15, 1)))
	assert.False(t, plain.Contains(p, t10))
	assert.False(t, plain.Contains(p, tokenAt(25, 1)))
	assert.False(t, plain.Contains(p, Minimum()))

	wrap := Range{Left: t30, Right: t10}
	assert.True(t, wrap.IsWrapAround(p))
	assert.True(t, wrap.Contains(p, tokenAt(5, 1)))
	assert.True(t, wrap.Contains(p, t10))
	assert.True(t, wrap.Contains(p, tokenAt(40, 1)))
	assert.True(t, wrap.Contains(p, Minimum()))
	assert.False(t, wrap.Contains(p, t20))
	assert.False(t, wrap.Contains(p, t30))

	full := Range{Left: t10, Right: t10}
	assert.True(t, full.IsWrapAround(p))
	for _, tok := range []Token{Minimum(), t10, t20, t30} {
		assert.True(t, full.Contains(p, tok))
	}

	fromMin := Range{Left: Minimum(), Right: t10}
	assert.False(t, fromMin.IsWrapAround(p))
	assert.True(t, fromMin.Contains(p, tokenAt(0, 1)))
	assert.False(t, fromMin.Contains(p, Minimum()))
}

func TestRanges(t *testing.T) {
	p := fixedPartitioner(t)
	sorted := []Token{tokenAt(10, 1), tokenAt(20, 1), tokenAt(30, 1)}

	ranges := Ranges(sorted)
	require.Len(t, ranges, 3)
	assert.True(t, ranges[0].Left.Equal(sorted[2]))
	assert.True(t, ranges[0].Right.Equal(sorted[0]))
	assert.True(t, ranges[0].IsWrapAround(p))
	for i := 1; i < 3; i++ {
		assert.True(t, ranges[i].Left.Equal(sorted[i-1]))
		assert.True(t, ranges[i].Right.Equal(sorted[i]))
	}

	// Every position belongs to exactly one range.
	for pos := int64(0); pos < 256; pos++ {
		owners := 0
		for _, r := range ranges {
			if r.Contains(p, tokenAt(pos, 1)) {
				owners++
			}
		}
		assert.Equal(t, 1, owners, "position %d", pos)
	}

	single := Ranges(sorted[:1])
	require.Len(t, single, 1)
	assert.True(t, single[0].Contains(p, tokenAt(99, 1)))

	assert.Empty(t, Ranges(nil))
}

func TestRangeString(t *testing.T) {
	r := Range{Left: Minimum(), Right: tokenAt(0, 1)}
	assert.Equal(t, "(,00000000]", r.String())
}
