package paircount

import (
	"math"

	"github.com/banshee-data/tpcf/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MaxCellsPerAxis bounds the grid resolution along a single axis.
	MaxCellsPerAxis = 256
	// MinCellBudget is the smallest total cell budget, regardless of N.
	MinCellBudget = 64
	// CellsPerPoint scales the total cell budget with the number of points.
	CellsPerPoint = 2
	// cellPad widens cells slightly past rmax so floor() rounding at cell
	// boundaries can never separate a close pair by two cells.
	cellPad = 1 + 1e-9
)

// Grid partitions a (possibly periodic) box into a regular lattice of cells
// whose side is at least the largest search radius, so that any pair closer
// than that radius lies in the same or adjacent cells.
type Grid struct {
	period  geometry.Period
	n       [geometry.Dims]int
	width   [geometry.Dims]float64
	origin  [geometry.Dims]float64
	outside int
}

// NewGrid sizes a grid for the given search radius covering every point in
// sets. Periodic axes span [0, L); open axes span the bounding box of the
// points. maxCells caps the total number of cells (0 picks a budget
// proportional to the number of points).
func NewGrid(period geometry.Period, rmax float64, maxCells int, sets ...[]r3.Vec) *Grid {
	g := &Grid{period: period}
	rmax *= cellPad

	total := 0
	for _, s := range sets {
		total += len(s)
	}
	if maxCells <= 0 {
		maxCells = CellsPerPoint * total
		if maxCells < MinCellBudget {
			maxCells = MinCellBudget
		}
	}

	lo, hi, _ := geometry.Bounds(sets...)
	for axis := 0; axis < geometry.Dims; axis++ {
		if period.Periodic(axis) {
			L := period.Length(axis)
			g.n[axis] = clampCells(int(L / rmax))
			continue
		}
		ext := geometry.Component(hi, axis) - geometry.Component(lo, axis)
		g.origin[axis] = geometry.Component(lo, axis)
		g.n[axis] = clampCells(int(ext/rmax) + 1)
	}

	for g.NumCells() > maxCells {
		axis := 0
		for a := 1; a < geometry.Dims; a++ {
			if g.n[a] > g.n[axis] {
				axis = a
			}
		}
		if g.n[axis] == 1 {
			break
		}
		g.n[axis] = (g.n[axis] + 1) / 2
	}

	for axis := 0; axis < geometry.Dims; axis++ {
		if period.Periodic(axis) {
			g.width[axis] = period.Length(axis) / float64(g.n[axis])
			continue
		}
		ext := geometry.Component(hi, axis) - geometry.Component(lo, axis)
		g.width[axis] = math.Max(rmax, ext/float64(g.n[axis]))
	}

	diagf("grid %dx%dx%d cells, widths %.4g/%.4g/%.4g, rmax %.4g, period %v",
		g.n[0], g.n[1], g.n[2], g.width[0], g.width[1], g.width[2], rmax, period)
	return g
}

func clampCells(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxCellsPerAxis {
		return MaxCellsPerAxis
	}
	return n
}

// NumCells returns the total number of cells.
func (g *Grid) NumCells() int {
	return g.n[0] * g.n[1] * g.n[2]
}

// Shape returns the number of cells along each axis.
func (g *Grid) Shape() [geometry.Dims]int { return g.n }

// CellWidth returns the cell side along axis.
func (g *Grid) CellWidth(axis int) float64 { return g.width[axis] }

// CellOf returns the linear index ix + iy*nx + iz*nx*ny of the cell
// containing v.
func (g *Grid) CellOf(v r3.Vec) int {
	if g.period.Any() {
		v = g.period.Wrap(v)
	}
	ix := g.axisCell(0, v.X)
	iy := g.axisCell(1, v.Y)
	iz := g.axisCell(2, v.Z)
	return ix + iy*g.n[0] + iz*g.n[0]*g.n[1]
}

func (g *Grid) axisCell(axis int, x float64) int {
	i := int(math.Floor((x - g.origin[axis]) / g.width[axis]))
	if i < 0 {
		return 0
	}
	if i >= g.n[axis] {
		return g.n[axis] - 1
	}
	return i
}

// coords splits a linear cell index into per-axis indices.
func (g *Grid) coords(cell int) [geometry.Dims]int {
	nx, ny := g.n[0], g.n[1]
	return [geometry.Dims]int{cell % nx, (cell / nx) % ny, cell / (nx * ny)}
}

// axisNeighbors appends the distinct cell indices within one step of i along
// axis, wrapping on periodic axes.
func (g *Grid) axisNeighbors(axis, i int, dst []int) []int {
	n := g.n[axis]
	for d := -1; d <= 1; d++ {
		j := i + d
		if g.period.Periodic(axis) {
			j = (j + n) % n
		} else if j < 0 || j >= n {
			continue
		}
		dup := false
		for _, k := range dst {
			if k == j {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, j)
		}
	}
	return dst
}

// Neighbors appends to dst the distinct linear indices of every cell
// adjacent to cell (including cell itself) and returns the extended slice.
func (g *Grid) Neighbors(cell int, dst []int) []int {
	c := g.coords(cell)
	var bx, by, bz [3]int
	xs := g.axisNeighbors(0, c[0], bx[:0])
	ys := g.axisNeighbors(1, c[1], by[:0])
	zs := g.axisNeighbors(2, c[2], bz[:0])

	nx, nxy := g.n[0], g.n[0]*g.n[1]
	for _, z := range zs {
		for _, y := range ys {
			for _, x := range xs {
				dst = append(dst, x+y*nx+z*nxy)
			}
		}
	}
	return dst
}

// CellList is the occupancy of a Grid for one point set, stored as a
// compressed index: the points of cell c are idx[start[c]:start[c+1]], in
// increasing point order.
type CellList struct {
	start []int
	idx   []int
}

// Assign bins points into the grid.
func (g *Grid) Assign(points []r3.Vec) *CellList {
	nc := g.NumCells()
	cells := make([]int, len(points))
	start := make([]int, nc+1)
	for i, p := range points {
		if g.outsideBox(p) {
			g.outside++
		}
		c := g.CellOf(p)
		cells[i] = c
		start[c+1]++
	}
	for c := 0; c < nc; c++ {
		start[c+1] += start[c]
	}

	fill := append([]int(nil), start[:nc]...)
	idx := make([]int, len(points))
	for i, c := range cells {
		idx[fill[c]] = i
		fill[c]++
	}
	return &CellList{start: start, idx: idx}
}

func (g *Grid) outsideBox(p r3.Vec) bool {
	for axis := 0; axis < geometry.Dims; axis++ {
		if !g.period.Periodic(axis) {
			continue
		}
		x := geometry.Component(p, axis)
		if x < 0 || x >= g.period.Length(axis) {
			return true
		}
	}
	return false
}

// Outside returns how many assigned points lay outside [0, L) on a periodic
// axis and were wrapped back into the box.
func (g *Grid) Outside() int { return g.outside }

// Points returns the indices of the points in cell c. The slice aliases
// internal storage.
func (l *CellList) Points(c int) []int {
	return l.idx[l.start[c]:l.start[c+1]]
}

// Len returns the number of points held.
func (l *CellList) Len() int { return len(l.idx) }
