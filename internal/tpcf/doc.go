// Package tpcf computes the two-point correlation function of one or two
// point samples, optionally inside a periodic box.
//
// Responsibilities: input validation (all before any counting), per-sample
// subsampling, selection and computation of the DD/DR/RR counts the chosen
// estimator needs, and estimator evaluation.
// Key entry points: TwoPointCorrelationFunction, Compute.
//
// The engine holds no shared mutable state; concurrent calls are
// independent.
package tpcf
