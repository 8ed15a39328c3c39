package hyperplane

import (
	"github.com/mourao666/cassandra-sim/distance"
	"github.com/mourao666/cassandra-sim/signature"
)

// Projector maps keys to signatures with a fixed bank.
type Projector struct {
	bank *Bank
}

// NewProjector returns a projector over bank.
func NewProjector(bank *Bank) (*Projector, error) {
	if bank == nil {
		return nil, configErrorf("nil bank")
	}
	return &Projector{bank: bank}, nil
}

// Bank returns the projector's bank.
func (p *Projector) Bank() *Bank { return p.bank }

// Project decodes key and returns its signature.
func (p *Projector) Project(key []byte) (signature.Signature, error) {
	if len(key) == 0 || len(key)%8 != 0 || len(key)/8 != p.bank.dim {
		return signature.Signature{}, &ErrInvalidKeyShape{Length: len(key), Dimension: p.bank.dim}
	}
	v, err := DecodeKey(key)
	if err != nil {
		return signature.Signature{}, err
	}
	return p.project(v), nil
}

// ProjectVector is Project for an already decoded key.
func (p *Projector) ProjectVector(v []float64) (signature.Signature, error) {
	if len(v) == 0 || len(v) != p.bank.dim {
		return signature.Signature{}, &ErrInvalidKeyShape{Length: 8 * len(v), Dimension: p.bank.dim}
	}
	return p.project(v), nil
}

// Bit i is set when the key lies on the non-negative side of normal i. A NaN
// dot product compares false and leaves the bit clear.
func (p *Projector) project(v []float64) signature.Signature {
	bits := make([]bool, len(p.bank.normals))
	for i, n := range p.bank.normals {
		bits[i] = distance.Dot(v, n) >= 0
	}
	return signature.FromBits(bits)
}

// RandomKey draws a key of the bank's dimension.
func (p *Projector) RandomKey(src Float64Source) []byte {
	return RandomKey(src, p.bank.dim)
}
