package distance

import "math"

// Dot returns the inner product of a and b. The vectors must have the same
// length; a NaN component makes the result NaN.
func Dot(a, b []float64) float64 {
	var sum float64
	for i, x := range a {
		sum += x * b[i]
	}
	return sum
}

// Norm returns the Euclidean length of v.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// NormalizeL2InPlace scales v to unit length. It reports false, leaving v
// unchanged, when v is empty or its length is zero or not finite.
func NormalizeL2InPlace(v []float64) bool {
	if len(v) == 0 {
		return false
	}
	n := Norm(v)
	if n == 0 || math.IsInf(n, 0) || math.IsNaN(n) {
		return false
	}
	for i := range v {
		v[i] /= n
	}
	return true
}

// Finite reports whether no component of v is NaN or infinite.
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
