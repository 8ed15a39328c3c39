// Package testutil holds fixtures shared by the package tests.
//
//	bank, _ := hyperplane.NewBank(testutil.FixedNormals)
//	p, _ := dht.NewSimilarityPartitioner(bank)
//	tok, _ := p.TokenFor(testutil.FixedKey()) // testutil.FixedSignature
//
// RNG generates reproducible keys in the wire layout the projector expects.
package testutil
