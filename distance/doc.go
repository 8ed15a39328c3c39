// Package distance provides vector arithmetic for hyperplane hashing.
//
// Keys and hyperplane normals are float64 vectors. Dot decides which side of a
// hyperplane a key lies on; NormalizeL2InPlace is applied to generated normals
// so that every hyperplane has unit length.
package distance
