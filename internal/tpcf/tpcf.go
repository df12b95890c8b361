package tpcf

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/tpcf/internal/estimator"
	"github.com/banshee-data/tpcf/internal/geometry"
	"github.com/banshee-data/tpcf/internal/paircount"
	"github.com/banshee-data/tpcf/internal/sampling"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options are the optional inputs of a correlation function call.
type Options struct {
	// Sample2 turns DD into a cross count against sample1. Nil means an
	// auto-correlation of sample1.
	Sample2 []r3.Vec
	// Randoms is the random catalogue used for DR and RR.
	Randoms []r3.Vec
	// Period holds one box length per axis; nil disables wrapping and a
	// +Inf entry leaves that axis open.
	Period []float64
	// MaxSampleSize caps each of sample1, sample2 and randoms; nil means no
	// cap.
	MaxSampleSize *int
	// Seed makes subsampling reproducible; nil draws from the process-wide
	// generator.
	Seed *uint64
	// Estimator is one of Natural, Davis-Peebles, Hewett, Hamilton or
	// Landy-Szalay (case-insensitive). Empty selects Natural.
	Estimator string
	// Workers and BruteForceThreshold are passed to the pair counter.
	Workers             int
	BruteForceThreshold int64
}

// Result is a correlation function together with the counts it was built
// from.
type Result struct {
	RunID     uuid.UUID        `json:"run_id"`
	Estimator estimator.Kind   `json:"estimator"`
	Edges     []float64        `json:"edges"`
	Xi        []float64        `json:"xi"`
	Counts    estimator.Counts `json:"counts"`
	N1        int              `json:"n1"`
	N2        int              `json:"n2"`
	NRand     int              `json:"n_rand"`
	Auto      bool             `json:"auto"`
	Period    []float64        `json:"period,omitempty"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
}

// TwoPointCorrelationFunction returns one correlation value per radial bin
// (len(edges)-1 values). Bins whose estimator denominator is zero hold NaN
// or ±Inf.
func TwoPointCorrelationFunction(sample1 []r3.Vec, edges []float64, opts Options) ([]float64, error) {
	res, err := Compute(sample1, edges, opts)
	if err != nil {
		return nil, err
	}
	return res.Xi, nil
}

type request struct {
	kind    estimator.Kind
	bins    geometry.RadialBins
	period  geometry.Period
	sample1 []r3.Vec
	sample2 []r3.Vec
	randoms []r3.Vec
}

// validate checks every input before any counting work starts.
func validate(sample1 []r3.Vec, edges []float64, opts Options) (*request, error) {
	kind, err := estimator.ParseKind(opts.Estimator)
	if err != nil {
		return nil, err
	}
	bins, err := geometry.NewRadialBins(edges)
	if err != nil {
		return nil, err
	}
	var period geometry.Period
	if opts.Period != nil {
		if period, err = geometry.NewPeriod(opts.Period); err != nil {
			return nil, err
		}
	}

	if len(sample1) == 0 {
		return nil, fmt.Errorf("%w: sample1 has no points", ErrEmptySample)
	}
	if opts.Sample2 != nil && len(opts.Sample2) == 0 {
		return nil, fmt.Errorf("%w: sample2 has no points", ErrEmptySample)
	}
	if opts.Randoms != nil && len(opts.Randoms) == 0 {
		return nil, fmt.Errorf("%w: randoms has no points", ErrEmptySample)
	}
	for _, s := range []struct {
		name string
		pts  []r3.Vec
	}{
		{"sample1", sample1},
		{"sample2", opts.Sample2},
		{"randoms", opts.Randoms},
	} {
		if err := geometry.CheckFinite(s.pts); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	if (kind.NeedsDR() || kind.NeedsRR()) && opts.Randoms == nil {
		return nil, fmt.Errorf("%w: %v estimator needs a random catalogue", ErrMissingCounts, kind)
	}
	if opts.MaxSampleSize != nil && *opts.MaxSampleSize <= 0 {
		return nil, fmt.Errorf("%w: max sample size %d must be positive", ErrInvalidSampleSize, *opts.MaxSampleSize)
	}

	return &request{
		kind:    kind,
		bins:    bins,
		period:  period,
		sample1: sample1,
		sample2: opts.Sample2,
		randoms: opts.Randoms,
	}, nil
}

// Compute validates the inputs, subsamples, counts the pairs the estimator
// needs and evaluates it.
func Compute(sample1 []r3.Vec, edges []float64, opts Options) (*Result, error) {
	start := time.Now()
	req, err := validate(sample1, edges, opts)
	if err != nil {
		opsf("rejected request: %v", err)
		return nil, err
	}

	if opts.MaxSampleSize != nil {
		if err := req.subsample(*opts.MaxSampleSize, opts.Seed); err != nil {
			return nil, err
		}
	}

	pc := paircount.Options{
		Period:              req.period,
		Workers:             opts.Workers,
		BruteForceThreshold: opts.BruteForceThreshold,
	}
	auto := req.sample2 == nil
	diagf("%v estimator: n1=%d n2=%d nrand=%d auto=%t bins=%d period=%v",
		req.kind, len(req.sample1), len(req.sample2), len(req.randoms), auto, req.bins.Len(), req.period)

	var counts estimator.Counts
	counts.DD, err = timedCount("DD", req.sample1, req.sample2, req.bins, pc)
	if err != nil {
		return nil, err
	}
	if req.kind.NeedsDR() {
		if counts.DR, err = timedCount("DR", req.sample1, req.randoms, req.bins, pc); err != nil {
			return nil, err
		}
	}
	if req.kind.NeedsRR() {
		if counts.RR, err = timedCount("RR", req.randoms, nil, req.bins, pc); err != nil {
			return nil, err
		}
	}

	sizes := estimator.Sizes{
		N1:    len(req.sample1),
		N2:    len(req.sample1),
		NRand: len(req.randoms),
		Auto:  auto,
	}
	if !auto {
		sizes.N2 = len(req.sample2)
	}
	xi, err := estimator.Evaluate(req.kind, counts, sizes)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.New(),
		Estimator: req.kind,
		Edges:     req.bins.Edges(),
		Xi:        xi,
		Counts:    counts,
		N1:        sizes.N1,
		N2:        sizes.N2,
		NRand:     sizes.NRand,
		Auto:      auto,
		Elapsed:   time.Since(start),
	}
	if opts.Period != nil {
		res.Period = req.period.Lengths()
	}
	return res, nil
}

// subsample caps each sample at maxSize. One source is shared across the
// samples, in a fixed order, so that a seed fixes all three draws.
func (r *request) subsample(maxSize int, seed *uint64) error {
	var src rand.Source
	if seed != nil {
		src = sampling.NewSource(*seed)
	}

	var err error
	for _, s := range []struct {
		name string
		pts  *[]r3.Vec
	}{
		{"sample1", &r.sample1},
		{"sample2", &r.sample2},
		{"randoms", &r.randoms},
	} {
		if *s.pts == nil {
			continue
		}
		n := len(*s.pts)
		if *s.pts, err = sampling.Subsample(*s.pts, maxSize, src); err != nil {
			return err
		}
		if n != len(*s.pts) {
			diagf("subsampled %s from %d to %d points", s.name, n, len(*s.pts))
		}
	}
	return nil
}

func timedCount(label string, a, b []r3.Vec, bins geometry.RadialBins, opts paircount.Options) ([]int64, error) {
	start := time.Now()
	c, err := paircount.CountPairs(a, b, bins, opts)
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", label, err)
	}
	tracef("%s: %d pairs compared in %v", label, c.Total, time.Since(start))
	return c.Binned(), nil
}
