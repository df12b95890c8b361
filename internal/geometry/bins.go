package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidBinEdges is returned for fewer than two edges, negative or
// non-finite edges, or edges that are not strictly increasing.
var ErrInvalidBinEdges = errors.New("invalid radial bin edges")

// RadialBins is a validated, strictly increasing sequence of separation
// edges. Bin i covers the half-open interval [edges[i], edges[i+1]).
type RadialBins struct {
	edges []float64
}

// NewRadialBins validates edges and returns a RadialBins holding a private
// copy of them.
func NewRadialBins(edges []float64) (RadialBins, error) {
	if len(edges) < 2 {
		return RadialBins{}, fmt.Errorf("%w: need at least 2 edges, got %d", ErrInvalidBinEdges, len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) || e < 0 {
			return RadialBins{}, fmt.Errorf("%w: edge %d is %v", ErrInvalidBinEdges, i, e)
		}
		if i > 0 && e <= edges[i-1] {
			return RadialBins{}, fmt.Errorf("%w: edge %d (%v) not greater than edge %d (%v)",
				ErrInvalidBinEdges, i, e, i-1, edges[i-1])
		}
	}
	return RadialBins{edges: append([]float64(nil), edges...)}, nil
}

// LinearBins returns n bins with edges evenly spaced between rmin and rmax.
func LinearBins(rmin, rmax float64, n int) (RadialBins, error) {
	if n < 1 {
		return RadialBins{}, fmt.Errorf("%w: need at least 1 bin, got %d", ErrInvalidBinEdges, n)
	}
	return NewRadialBins(floats.Span(make([]float64, n+1), rmin, rmax))
}

// LogBins returns n bins with edges evenly spaced in log(r) between rmin and
// rmax. rmin must be positive.
func LogBins(rmin, rmax float64, n int) (RadialBins, error) {
	if n < 1 {
		return RadialBins{}, fmt.Errorf("%w: need at least 1 bin, got %d", ErrInvalidBinEdges, n)
	}
	if rmin <= 0 {
		return RadialBins{}, fmt.Errorf("%w: logarithmic bins need rmin > 0, got %v", ErrInvalidBinEdges, rmin)
	}
	return NewRadialBins(floats.LogSpan(make([]float64, n+1), rmin, rmax))
}

// Len returns the number of bins, one less than the number of edges.
func (b RadialBins) Len() int {
	if len(b.edges) == 0 {
		return 0
	}
	return len(b.edges) - 1
}

// Edges returns a copy of the bin edges.
func (b RadialBins) Edges() []float64 {
	return append([]float64(nil), b.edges...)
}

// Max returns the largest edge.
func (b RadialBins) Max() float64 {
	if len(b.edges) == 0 {
		return 0
	}
	return b.edges[len(b.edges)-1]
}

// SquaredEdges returns edges[i]*edges[i] for every edge.
func (b RadialBins) SquaredEdges() []float64 {
	out := make([]float64, len(b.edges))
	for i, e := range b.edges {
		out[i] = e * e
	}
	return out
}

// Midpoints returns the arithmetic centre of every bin.
func (b RadialBins) Midpoints() []float64 {
	out := make([]float64, b.Len())
	for i := range out {
		out[i] = 0.5 * (b.edges[i] + b.edges[i+1])
	}
	return out
}
