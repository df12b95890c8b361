// Package testutil provides shared test fixtures for the counting and
// correlation packages.
//
// All generators are deterministic for a given seed so that failures are
// reproducible.
package testutil

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewRand returns a seeded generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// UniformBox returns n points uniformly distributed in [0, size).
func UniformBox(n int, size r3.Vec, seed uint64) []r3.Vec {
	rng := NewRand(seed)
	out := make([]r3.Vec, n)
	for i := range out {
		out[i] = r3.Vec{X: rng.Float64() * size.X, Y: rng.Float64() * size.Y, Z: rng.Float64() * size.Z}
	}
	return out
}

// UniformCube returns n points uniformly distributed in [0, L)^3.
func UniformCube(n int, L float64, seed uint64) []r3.Vec {
	return UniformBox(n, r3.Vec{X: L, Y: L, Z: L}, seed)
}

// Clustered returns n points scattered with Gaussian width sigma around
// nClusters uniformly placed centres in [0, L)^3. Points are not wrapped, so
// some may fall slightly outside the box.
func Clustered(n, nClusters int, sigma, L float64, seed uint64) []r3.Vec {
	src := rand.NewPCG(seed, seed+2)
	rng := rand.New(src)
	centres := UniformCube(nClusters, L, seed+3)
	offset := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}

	out := make([]r3.Vec, n)
	for i := range out {
		c := centres[rng.IntN(nClusters)]
		out[i] = r3.Vec{X: c.X + offset.Rand(), Y: c.Y + offset.Rand(), Z: c.Z + offset.Rand()}
	}
	return out
}
