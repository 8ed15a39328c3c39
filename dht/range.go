package dht

import "fmt"

// Range is the half-open ring interval (Left, Right]. When Left is not less
// than Right the range wraps past the minimum token; Left equal to Right
// covers the whole ring.
type Range struct {
	Left  Token
	Right Token
}

func (r Range) String() string {
	return fmt.Sprintf("(%s,%s]", r.Left, r.Right)
}

// Contains reports whether t lies in r under the partitioner's order.
func (r Range) Contains(p Partitioner, t Token) bool {
	lr := p.Compare(r.Left, r.Right)
	if lr == 0 {
		return true
	}
	afterLeft := p.Compare(t, r.Left) > 0
	atOrBeforeRight := p.Compare(t, r.Right) <= 0
	if lr < 0 {
		return afterLeft && atOrBeforeRight
	}
	return afterLeft || atOrBeforeRight
}

// IsWrapAround reports whether r crosses the minimum token.
func (r Range) IsWrapAround(p Partitioner) bool {
	return p.Compare(r.Left, r.Right) >= 0
}

// Ranges returns the ranges owned by each token of a sorted ring: entry i is
// (tokens[i-1], tokens[i]], and entry 0 wraps from the last token.
func Ranges(sorted []Token) []Range {
	ranges := make([]Range, len(sorted))
	for i, t := range sorted {
		prev := sorted[(i+len(sorted)-1)%len(sorted)]
		ranges[i] = Range{Left: prev, Right: t}
	}
	return ranges
}

// Split returns the midpoint of r when it lies strictly inside the range,
// distinct from both bounds. A range of width one has no such token and
// yields ErrNoSplit.
func Split(p Partitioner, r Range) (Token, error) {
	mid := p.Midpoint(r.Left, r.Right)
	if p.Compare(mid, r.Left) == 0 || p.Compare(mid, r.Right) == 0 || !r.Contains(p, mid) {
		return Token{}, fmt.Errorf("%w: %s", ErrNoSplit, r)
	}
	return mid, nil
}
