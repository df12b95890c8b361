// Package geometry holds the point, box and radial-bin types shared by the
// pair counter and the correlation-function orchestrator.
//
// Responsibilities: periodic separation metric, bin-edge validation and
// construction, coordinate table conversion.
// Key types: Period, RadialBins.
//
// Points are gonum r3.Vec values. Nothing in this package allocates shared
// state; every value is immutable once constructed.
package geometry
