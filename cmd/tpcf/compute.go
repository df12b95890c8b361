package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/banshee-data/tpcf/internal/config"
	"github.com/banshee-data/tpcf/internal/geometry"
	"github.com/banshee-data/tpcf/internal/monitoring"
	"github.com/banshee-data/tpcf/internal/plotting"
	"github.com/banshee-data/tpcf/internal/sampling"
	"github.com/banshee-data/tpcf/internal/tpcf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"
)

// computeOptions holds the catalogue inputs of the compute command. Run
// parameters live in viper so that flags, environment and the config file
// are layered in that order.
type computeOptions struct {
	Sample1        string
	Sample2        string
	Randoms        string
	UniformRandoms int
	Plot           string
}

func newComputeCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &computeOptions{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute xi(r) for a point catalogue",
		Long: `Compute the two-point correlation function of a catalogue of 3D points.

Point files hold one "x y z" row per line, separated by whitespace or
commas. Lines starting with # are ignored.

Run parameters come from --config, then TPCF_* environment variables, then
flags, each overriding the previous.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, rootOpts, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Sample1, "sample1", "", "point file for sample1 (required)")
	f.StringVar(&opts.Sample2, "sample2", "", "point file for sample2; cross-correlates with sample1")
	f.StringVar(&opts.Randoms, "randoms", "", "point file for the random catalogue")
	f.IntVar(&opts.UniformRandoms, "uniform-randoms", 0, "generate this many uniform randoms over the box instead of --randoms")
	f.StringVar(&opts.Plot, "plot", "", "write a xi(r) figure to this file (.png, .svg, .pdf)")

	f.String("rbins", "", "comma-separated radial bin edges; overrides rmin/rmax/nbins")
	f.Float64("rmin", 0, "smallest bin edge")
	f.Float64("rmax", 0.5, "largest bin edge")
	f.Int("nbins", 4, "number of radial bins")
	f.Bool("log-bins", false, "space bin edges logarithmically (rmin > 0)")
	f.String("period", "", "box length, one value for a cube or three comma-separated; inf leaves an axis open")
	f.Int("max-sample-size", 0, "subsample every catalogue to at most this many points")
	f.Uint64("seed", 0, "seed for subsampling and uniform randoms")
	f.String("estimator", "Natural", "Natural, Davis-Peebles, Hewett, Hamilton or Landy-Szalay")
	f.Int("workers", 0, "pair counting goroutines (0 uses all CPUs)")
	f.Int64("brute-force-threshold", 0, "count directly when n1*n2 is at most this (0 uses the built-in default)")

	_ = cmd.MarkFlagRequired("sample1")
	if err := rootOpts.v.BindPFlags(f); err != nil {
		panic(err)
	}

	return cmd
}

func runCompute(cmd *cobra.Command, rootOpts *rootOptions, opts *computeOptions) error {
	cfg, err := loadRunConfig(rootOpts)
	if err != nil {
		return err
	}
	edges, err := cfg.Edges()
	if err != nil {
		return err
	}

	sample1, err := readPointFile(opts.Sample1)
	if err != nil {
		return err
	}
	tOpts := tpcf.Options{
		Period:              cfg.GetPeriod(),
		MaxSampleSize:       cfg.MaxSampleSize,
		Seed:                cfg.Seed,
		Estimator:           cfg.GetEstimator(),
		Workers:             cfg.GetWorkers(),
		BruteForceThreshold: cfg.GetBruteForceThreshold(),
	}
	if opts.Sample2 != "" {
		if tOpts.Sample2, err = readPointFile(opts.Sample2); err != nil {
			return err
		}
	}

	switch {
	case opts.UniformRandoms < 0:
		return fmt.Errorf("--uniform-randoms must be positive, got %d", opts.UniformRandoms)
	case opts.Randoms != "" && opts.UniformRandoms > 0:
		return errors.New("--randoms and --uniform-randoms are mutually exclusive")
	case opts.Randoms != "":
		if tOpts.Randoms, err = readPointFile(opts.Randoms); err != nil {
			return err
		}
	case opts.UniformRandoms > 0:
		box, err := randomsBox(tOpts.Period, sample1, tOpts.Sample2)
		if err != nil {
			return err
		}
		src := randomsSource(cfg.Seed)
		tOpts.Randoms = sampling.UniformRandoms(opts.UniformRandoms, box, src)
		monitoring.Logf("generated %d uniform randoms in [%v, %v]", opts.UniformRandoms, box.Min, box.Max)
	}

	res, err := tpcf.Compute(sample1, edges, tOpts)
	if err != nil {
		return err
	}
	monitoring.Logf("run %s: %v over %d bins in %v", res.RunID, res.Estimator, len(res.Xi), res.Elapsed)

	if opts.Plot != "" {
		series := plotting.Series{Label: res.Estimator.String(), Edges: res.Edges, Xi: res.Xi}
		title := fmt.Sprintf("xi(r), %s", res.Estimator)
		if err := plotting.SaveXi(opts.Plot, title, cfg.GetLogBins() && len(cfg.RBins) == 0, series); err != nil {
			return err
		}
		monitoring.Logf("wrote plot to %s", opts.Plot)
	}

	return writeResult(cmd.OutOrStdout(), rootOpts.Format, res)
}

// loadRunConfig reads the optional config file and applies every parameter
// set through the environment or on the command line.
func loadRunConfig(rootOpts *rootOptions) (*config.RunConfig, error) {
	cfg := config.EmptyRunConfig()
	if rootOpts.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadRunConfig(rootOpts.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := applyOverrides(rootOpts.v, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(v *viper.Viper, cfg *config.RunConfig) error {
	if v.IsSet("rbins") {
		edges, err := parseCSVFloatSlice(v.GetString("rbins"))
		if err != nil {
			return fmt.Errorf("rbins: %w", err)
		}
		cfg.RBins = edges
	}
	if v.IsSet("rmin") {
		cfg.RMin = ptr(v.GetFloat64("rmin"))
	}
	if v.IsSet("rmax") {
		cfg.RMax = ptr(v.GetFloat64("rmax"))
	}
	if v.IsSet("nbins") {
		cfg.NBins = ptr(v.GetInt("nbins"))
	}
	if v.IsSet("log-bins") {
		cfg.LogBins = ptr(v.GetBool("log-bins"))
	}
	if v.IsSet("period") {
		period, err := parsePeriod(v.GetString("period"))
		if err != nil {
			return err
		}
		cfg.Period = period
	}
	if v.IsSet("max-sample-size") {
		cfg.MaxSampleSize = ptr(v.GetInt("max-sample-size"))
	}
	if v.IsSet("seed") {
		cfg.Seed = ptr(v.GetUint64("seed"))
	}
	if v.IsSet("estimator") {
		cfg.Estimator = ptr(v.GetString("estimator"))
	}
	if v.IsSet("workers") {
		cfg.Workers = ptr(v.GetInt("workers"))
	}
	if v.IsSet("brute-force-threshold") {
		cfg.BruteForceThreshold = ptr(v.GetInt64("brute-force-threshold"))
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parsePeriod accepts one box length (a cube) or three. An "inf" entry
// leaves that axis open and maps to a null entry in the run config.
func parsePeriod(s string) ([]*float64, error) {
	vals, err := parseCSVFloatSlice(s)
	if err != nil {
		return nil, fmt.Errorf("period: %w", err)
	}
	switch len(vals) {
	case 0:
		return nil, nil
	case 1:
		vals = []float64{vals[0], vals[0], vals[0]}
	case geometry.Dims:
	default:
		return nil, fmt.Errorf("%w: period needs 1 or %d values, got %d", tpcf.ErrInvalidPeriod, geometry.Dims, len(vals))
	}
	out := make([]*float64, len(vals))
	for i, v := range vals {
		if !math.IsInf(v, 1) {
			out[i] = ptr(v)
		}
	}
	return out, nil
}

// randomsBox is the volume uniform randoms are drawn from: [0, L) on
// periodic axes and the data's bounding box on open ones.
func randomsBox(period []float64, samples ...[]r3.Vec) (r3.Box, error) {
	lo, hi, ok := geometry.Bounds(samples...)
	if !ok {
		return r3.Box{}, tpcf.ErrEmptySample
	}
	if period != nil {
		p, err := geometry.NewPeriod(period)
		if err != nil {
			return r3.Box{}, err
		}
		if p.Periodic(0) {
			lo.X, hi.X = 0, p.Length(0)
		}
		if p.Periodic(1) {
			lo.Y, hi.Y = 0, p.Length(1)
		}
		if p.Periodic(2) {
			lo.Z, hi.Z = 0, p.Length(2)
		}
	}
	return r3.Box{Min: lo, Max: hi}, nil
}

// randomsSource derives the uniform-randoms stream from the run seed, one
// past the subsampling stream. A nil seed gives a nil (process-wide) source.
func randomsSource(seed *uint64) rand.Source {
	if seed == nil {
		return nil
	}
	return sampling.NewSource(*seed + 1)
}
