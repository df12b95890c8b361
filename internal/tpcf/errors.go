package tpcf

import (
	"github.com/banshee-data/tpcf/internal/estimator"
	"github.com/banshee-data/tpcf/internal/geometry"
	"github.com/banshee-data/tpcf/internal/paircount"
	"github.com/banshee-data/tpcf/internal/sampling"
)

// Errors re-exported from the packages that detect them, so callers can
// match every failure of Compute with errors.Is against this package.
var (
	ErrInvalidBinEdges   = geometry.ErrInvalidBinEdges
	ErrInvalidPeriod     = geometry.ErrInvalidPeriod
	ErrInvalidPoints     = geometry.ErrInvalidCoordinates
	ErrEmptySample       = paircount.ErrEmptySample
	ErrInvalidSampleSize = sampling.ErrInvalidSampleSize
	ErrMissingCounts     = estimator.ErrMissingCounts
	ErrUnknownEstimator  = estimator.ErrUnknownEstimator
)
