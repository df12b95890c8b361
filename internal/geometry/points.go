package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidCoordinates is returned when a coordinate row does not have
// exactly Dims finite columns.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// FromRows converts an N×3 coordinate table into points.
func FromRows(rows [][]float64) ([]r3.Vec, error) {
	out := make([]r3.Vec, len(rows))
	for i, row := range rows {
		if len(row) != Dims {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidCoordinates, i, len(row), Dims)
		}
		for j, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%w: row %d column %d is %v", ErrInvalidCoordinates, i, j, x)
			}
		}
		out[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	return out, nil
}

// CheckFinite returns ErrInvalidCoordinates naming the first point with a
// NaN or infinite component.
func CheckFinite(points []r3.Vec) error {
	for i, v := range points {
		for axis := 0; axis < Dims; axis++ {
			if x := Component(v, axis); math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: point %d axis %d is %v", ErrInvalidCoordinates, i, axis, x)
			}
		}
	}
	return nil
}

// Component returns coordinate axis (0, 1 or 2) of v.
func Component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Bounds returns the element-wise minimum and maximum over all given point
// sets. ok is false if every set is empty.
func Bounds(sets ...[]r3.Vec) (lo, hi r3.Vec, ok bool) {
	for _, set := range sets {
		for _, v := range set {
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
			hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
		}
	}
	return lo, hi, ok
}
