package paircount

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/banshee-data/tpcf/internal/geometry"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptySample is returned when a point set to be counted has no points.
var ErrEmptySample = errors.New("empty sample")

const (
	// DefaultBruteForceThreshold is the largest number of candidate pairs
	// (n1*n2) for which direct pairwise comparison is used instead of the grid.
	DefaultBruteForceThreshold = 1 << 14
	// shardsPerWorker splits the cell range finer than the worker count so
	// that uneven cell occupancy still balances.
	shardsPerWorker = 4
)

// Options tunes a pair count. The zero value counts in an open (non
// periodic) volume using every available CPU.
type Options struct {
	Period geometry.Period
	// Workers is the number of goroutines used by the grid path.
	// 0 means runtime.GOMAXPROCS(0); 1 counts sequentially.
	Workers int
	// BruteForceThreshold selects the brute-force path when n1*n2 is at or
	// below it. 0 means DefaultBruteForceThreshold; negative disables it.
	BruteForceThreshold int64
	// MaxCells caps the grid size. 0 picks a budget from the point count.
	MaxCells int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) bruteForceThreshold() int64 {
	if o.BruteForceThreshold == 0 {
		return DefaultBruteForceThreshold
	}
	return o.BruteForceThreshold
}

// Counts holds cumulative pair counts for one comparison.
type Counts struct {
	// Edges are the radial bin edges counted against.
	Edges []float64
	// Within[k] is the number of pairs with separation strictly below Edges[k].
	Within []int64
	// Total is the number of distinct pairs compared: n(n-1)/2 for an auto
	// count, n1*n2 for a cross count.
	Total int64
	// Auto is true for a single-sample count.
	Auto bool
}

// Binned differences the cumulative counts into one count per bin:
// bin i = Within[i+1] - Within[i].
func (c Counts) Binned() []int64 {
	if len(c.Within) < 2 {
		return nil
	}
	out := make([]int64, len(c.Within)-1)
	for i := range out {
		out[i] = c.Within[i+1] - c.Within[i]
	}
	return out
}

// Beyond returns the number of pairs at or beyond the last edge.
func (c Counts) Beyond() int64 {
	if len(c.Within) == 0 {
		return c.Total
	}
	return c.Total - c.Within[len(c.Within)-1]
}

// Auto counts the unordered pairs within a single point set.
func Auto(points []r3.Vec, bins geometry.RadialBins, opts Options) (Counts, error) {
	return count(points, nil, bins, opts, pathAuto)
}

// Cross counts every pair (a[i], b[j]).
func Cross(a, b []r3.Vec, bins geometry.RadialBins, opts Options) (Counts, error) {
	if b == nil {
		b = []r3.Vec{}
	}
	return count(a, b, bins, opts, pathAuto)
}

// CountPairs counts pairs between a and b; a nil b selects an auto count
// of a.
func CountPairs(a, b []r3.Vec, bins geometry.RadialBins, opts Options) (Counts, error) {
	return count(a, b, bins, opts, pathAuto)
}

// BruteForce counts like CountPairs but always compares every candidate pair
// directly.
func BruteForce(a, b []r3.Vec, bins geometry.RadialBins, period geometry.Period) (Counts, error) {
	return count(a, b, bins, Options{Period: period}, pathBrute)
}

// Gridded counts like CountPairs but always uses the spatial grid.
func Gridded(a, b []r3.Vec, bins geometry.RadialBins, opts Options) (Counts, error) {
	return count(a, b, bins, opts, pathGrid)
}

type path int

const (
	pathAuto path = iota
	pathBrute
	pathGrid
)

func count(a, b []r3.Vec, bins geometry.RadialBins, opts Options, p path) (Counts, error) {
	if bins.Len() < 1 {
		return Counts{}, fmt.Errorf("%w: no bins", geometry.ErrInvalidBinEdges)
	}
	auto := b == nil
	if len(a) == 0 {
		return Counts{}, fmt.Errorf("%w: first sample has no points", ErrEmptySample)
	}
	if !auto && len(b) == 0 {
		return Counts{}, fmt.Errorf("%w: second sample has no points", ErrEmptySample)
	}

	c := Counts{Edges: bins.Edges(), Auto: auto}
	n1 := int64(len(a))
	if auto {
		b = a
		c.Total = n1 * (n1 - 1) / 2
	} else {
		c.Total = n1 * int64(len(b))
	}

	sq := bins.SquaredEdges()
	if p == pathAuto {
		p = pathGrid
		if th := opts.bruteForceThreshold(); th > 0 && n1*int64(len(b)) <= th {
			p = pathBrute
		}
	}

	var hist []int64
	if p == pathBrute {
		diagf("brute force: n1=%d n2=%d auto=%t", len(a), len(b), auto)
		hist = bruteHistogram(a, b, auto, sq, opts.Period)
	} else {
		var err error
		hist, err = gridHistogram(a, b, auto, sq, bins.Max(), opts)
		if err != nil {
			return Counts{}, err
		}
	}

	c.Within = make([]int64, len(hist))
	var run int64
	for k, h := range hist {
		run += h
		c.Within[k] = run
	}
	return c, nil
}

// accumulate records a pair at squared separation d2 in hist, where
// hist[k] counts pairs with sq[k-1] <= d2 < sq[k]. Pairs at or beyond the
// last edge, and NaN separations, are dropped.
func accumulate(hist []int64, sq []float64, d2 float64) {
	if !(d2 < sq[len(sq)-1]) {
		return
	}
	k := sort.Search(len(sq), func(k int) bool { return sq[k] > d2 })
	hist[k]++
}

func bruteHistogram(a, b []r3.Vec, auto bool, sq []float64, period geometry.Period) []int64 {
	hist := make([]int64, len(sq))
	for i, pa := range a {
		j0 := 0
		if auto {
			j0 = i + 1
		}
		for _, pb := range b[j0:] {
			accumulate(hist, sq, period.SeparationSq(pa, pb))
		}
	}
	return hist
}

func gridHistogram(a, b []r3.Vec, auto bool, sq []float64, rmax float64, opts Options) ([]int64, error) {
	var grid *Grid
	if auto {
		grid = NewGrid(opts.Period, rmax, opts.MaxCells, a)
	} else {
		grid = NewGrid(opts.Period, rmax, opts.MaxCells, a, b)
	}
	la := grid.Assign(a)
	lb := la
	if !auto {
		lb = grid.Assign(b)
	}
	if n := grid.Outside(); n > 0 {
		opsf("%d points outside the periodic box were wrapped", n)
	}

	nc := grid.NumCells()
	workers := opts.workers()
	shards := 1
	if workers > 1 {
		shards = min(nc, workers*shardsPerWorker)
	}

	hists := make([][]int64, shards)
	var g errgroup.Group
	g.SetLimit(workers)
	for s := range shards {
		lo, hi := s*nc/shards, (s+1)*nc/shards
		g.Go(func() error {
			hists[s] = countCells(grid, la, lb, a, b, auto, sq, opts.Period, lo, hi)
			tracef("shard %d/%d cells [%d,%d) done", s+1, shards, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hist := make([]int64, len(sq))
	for _, h := range hists {
		for k, v := range h {
			hist[k] += v
		}
	}
	return hist, nil
}

// countCells compares every point in cells [lo, hi) of la against the
// points of lb in adjacent cells. In auto mode each unordered cell pair is
// visited from its lower index and, within one cell, only j > i is counted.
func countCells(grid *Grid, la, lb *CellList, a, b []r3.Vec, auto bool,
	sq []float64, period geometry.Period, lo, hi int) []int64 {

	hist := make([]int64, len(sq))
	neighbors := make([]int, 0, 27)
	for ca := lo; ca < hi; ca++ {
		ia := la.Points(ca)
		if len(ia) == 0 {
			continue
		}
		neighbors = grid.Neighbors(ca, neighbors[:0])
		for _, cb := range neighbors {
			if auto && cb < ca {
				continue
			}
			ib := lb.Points(cb)
			same := auto && cb == ca
			for _, i := range ia {
				pa := a[i]
				for _, j := range ib {
					if same && j <= i {
						continue
					}
					accumulate(hist, sq, period.SeparationSq(pa, b[j]))
				}
			}
		}
	}
	return hist
}
