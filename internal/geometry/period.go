package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidPeriod is returned when a period vector has the wrong number of
// entries or a non-positive entry.
var ErrInvalidPeriod = errors.New("invalid period")

// Dims is the coordinate dimensionality of every point handled by the engine.
const Dims = 3

// Period describes an optionally periodic, possibly rectangular box.
// The zero value has no wrapping on any axis.
type Period struct {
	lengths [Dims]float64
	wrap    [Dims]bool
}

// NewPeriod builds a Period from one box length per axis. An entry of +Inf
// leaves that axis open (no wrapping), which allows mixed boxes such as a
// slab periodic in x and y only.
func NewPeriod(lengths []float64) (Period, error) {
	var p Period
	if len(lengths) != Dims {
		return p, fmt.Errorf("%w: got %d entries, want %d", ErrInvalidPeriod, len(lengths), Dims)
	}
	for i, l := range lengths {
		if math.IsNaN(l) || l <= 0 {
			return Period{}, fmt.Errorf("%w: axis %d length %v must be positive", ErrInvalidPeriod, i, l)
		}
		p.lengths[i] = l
		p.wrap[i] = !math.IsInf(l, 1)
	}
	return p, nil
}

// CubicPeriod returns a Period wrapping all three axes with side L.
func CubicPeriod(L float64) (Period, error) {
	return NewPeriod([]float64{L, L, L})
}

// Periodic reports whether the given axis wraps.
func (p Period) Periodic(axis int) bool { return p.wrap[axis] }

// Length returns the box length along axis, or +Inf for an open axis.
func (p Period) Length(axis int) float64 {
	if !p.wrap[axis] {
		return math.Inf(1)
	}
	return p.lengths[axis]
}

// Any reports whether at least one axis wraps.
func (p Period) Any() bool {
	return p.wrap[0] || p.wrap[1] || p.wrap[2]
}

// Lengths returns the per-axis lengths, +Inf on open axes.
func (p Period) Lengths() []float64 {
	out := make([]float64, Dims)
	for i := range out {
		out[i] = p.Length(i)
	}
	return out
}

// Wrap maps v into [0, L) along every periodic axis. Open axes are untouched.
func (p Period) Wrap(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: p.wrapAxis(0, v.X),
		Y: p.wrapAxis(1, v.Y),
		Z: p.wrapAxis(2, v.Z),
	}
}

func (p Period) wrapAxis(axis int, x float64) float64 {
	if !p.wrap[axis] {
		return x
	}
	L := p.lengths[axis]
	x = math.Mod(x, L)
	if x < 0 {
		x += L
	}
	// math.Mod of a tiny negative value can round back up to L.
	if x >= L {
		x = 0
	}
	return x
}

// SeparationSq returns the squared distance between a and b, taking the
// minimum image along every periodic axis.
func (p Period) SeparationSq(a, b r3.Vec) float64 {
	dx := p.axisDelta(0, a.X-b.X)
	dy := p.axisDelta(1, a.Y-b.Y)
	dz := p.axisDelta(2, a.Z-b.Z)
	return dx*dx + dy*dy + dz*dz
}

// Separation returns the (possibly wrapped) distance between a and b.
func (p Period) Separation(a, b r3.Vec) float64 {
	return math.Sqrt(p.SeparationSq(a, b))
}

func (p Period) axisDelta(axis int, d float64) float64 {
	d = math.Abs(d)
	if !p.wrap[axis] {
		return d
	}
	L := p.lengths[axis]
	if d >= L {
		d = math.Mod(d, L)
	}
	if L-d < d {
		d = L - d
	}
	return d
}

// String implements fmt.Stringer.
func (p Period) String() string {
	if !p.Any() {
		return "open"
	}
	return fmt.Sprintf("[%g %g %g]", p.Length(0), p.Length(1), p.Length(2))
}
