// Package sampling subsamples oversized point sets and generates uniform
// random catalogues.
//
// Every function takes an explicit rand.Source. A nil source falls back to
// the process-wide math/rand/v2 generator: results are then still valid
// statistics but are not reproducible between runs.
package sampling

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrInvalidSampleSize is returned when the maximum sample size is not
// positive.
var ErrInvalidSampleSize = errors.New("invalid sample size")

// streamSalt decorrelates the second PCG word from the seed.
const streamSalt = 0x9e3779b97f4a7c15

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^streamSalt)
}

// Subsample returns at most maxSize points drawn uniformly without
// replacement from points. If points already fits, it is returned as is.
// The kept points appear in their original order.
func Subsample(points []r3.Vec, maxSize int, src rand.Source) ([]r3.Vec, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size %d must be positive", ErrInvalidSampleSize, maxSize)
	}
	if len(points) <= maxSize {
		return points, nil
	}

	idxs := make([]int, maxSize)
	sampleuv.WithoutReplacement(idxs, len(points), src)
	sort.Ints(idxs)

	out := make([]r3.Vec, maxSize)
	for i, j := range idxs {
		out[i] = points[j]
	}
	return out, nil
}

// UniformRandoms draws n points uniformly inside box.
func UniformRandoms(n int, box r3.Box, src rand.Source) []r3.Vec {
	if n <= 0 {
		return nil
	}
	ux := distuv.Uniform{Min: box.Min.X, Max: box.Max.X, Src: src}
	uy := distuv.Uniform{Min: box.Min.Y, Max: box.Max.Y, Src: src}
	uz := distuv.Uniform{Min: box.Min.Z, Max: box.Max.Z, Src: src}

	out := make([]r3.Vec, n)
	for i := range out {
		out[i] = r3.Vec{X: ux.Rand(), Y: uy.Rand(), Z: uz.Rand()}
	}
	return out
}
