// Package paircount counts point pairs per radial separation bin.
//
// Responsibilities: regular-grid spatial index sized to the largest bin
// edge, candidate pair generation over same/adjacent cells (with periodic
// wrap), cumulative "within r" counting and differencing into bins.
// Key types: Grid, CellList, Counts, Options.
//
// Auto counts (one sample) visit every unordered pair {i, j}, i != j, once.
// Cross counts visit every (i, j) with i from the first sample and j from
// the second once. The grid path and the brute-force path produce identical
// integer counts; the parallel path is bit-identical to the sequential one.
package paircount
