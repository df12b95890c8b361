package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/tpcf/internal/estimator"
	"github.com/banshee-data/tpcf/internal/geometry"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/tpcf.defaults.json"

// RunConfig holds the tunable parameters of a correlation function run.
// Every field is optional; the Get* methods supply defaults for fields
// omitted from the JSON.
type RunConfig struct {
	// Explicit bin edges. When set, rmin/rmax/nbins/log_bins are ignored.
	RBins   []float64 `json:"rbins,omitempty"`
	RMin    *float64  `json:"rmin,omitempty"`
	RMax    *float64  `json:"rmax,omitempty"`
	NBins   *int      `json:"nbins,omitempty"`
	LogBins *bool     `json:"log_bins,omitempty"`

	// Period holds one box length per axis; null leaves that axis open.
	Period []*float64 `json:"period,omitempty"`

	MaxSampleSize       *int    `json:"max_sample_size,omitempty"`
	Seed                *uint64 `json:"seed,omitempty"`
	Estimator           *string `json:"estimator,omitempty"`
	Workers             *int    `json:"workers,omitempty"`
	BruteForceThreshold *int64  `json:"brute_force_threshold,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRunConfig returns a RunConfig with all fields unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// DefaultRunConfig returns a RunConfig with every field the Get* methods
// default set explicitly to that default.
func DefaultRunConfig() *RunConfig {
	empty := EmptyRunConfig()
	return &RunConfig{
		RMin:      ptrFloat64(empty.GetRMin()),
		RMax:      ptrFloat64(empty.GetRMax()),
		NBins:     ptrInt(empty.GetNBins()),
		LogBins:   ptrBool(empty.GetLogBins()),
		Estimator: ptrString(empty.GetEstimator()),
		Workers:   ptrInt(empty.GetWorkers()),
	}
}

// LoadRunConfig loads a RunConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical run defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot be
// loaded, intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Bin edges and the
// period are checked with the same rules the engine applies.
func (c *RunConfig) Validate() error {
	if c.NBins != nil && *c.NBins < 1 {
		return fmt.Errorf("nbins must be at least 1, got %d", *c.NBins)
	}
	if _, err := c.Edges(); err != nil {
		return err
	}
	if c.Period != nil {
		if _, err := geometry.NewPeriod(c.GetPeriod()); err != nil {
			return err
		}
	}
	if c.MaxSampleSize != nil && *c.MaxSampleSize <= 0 {
		return fmt.Errorf("max_sample_size must be positive, got %d", *c.MaxSampleSize)
	}
	if c.Estimator != nil {
		if _, err := estimator.ParseKind(*c.Estimator); err != nil {
			return err
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// Edges returns the configured radial bin edges: RBins when set, otherwise
// nbins linear (or logarithmic) bins between rmin and rmax.
func (c *RunConfig) Edges() ([]float64, error) {
	var (
		bins geometry.RadialBins
		err  error
	)
	switch {
	case len(c.RBins) > 0:
		bins, err = geometry.NewRadialBins(c.RBins)
	case c.GetLogBins():
		bins, err = geometry.LogBins(c.GetRMin(), c.GetRMax(), c.GetNBins())
	default:
		bins, err = geometry.LinearBins(c.GetRMin(), c.GetRMax(), c.GetNBins())
	}
	if err != nil {
		return nil, err
	}
	return bins.Edges(), nil
}

// GetRMin returns the rmin value or the default.
func (c *RunConfig) GetRMin() float64 {
	if c.RMin == nil {
		return 0
	}
	return *c.RMin
}

// GetRMax returns the rmax value or the default.
func (c *RunConfig) GetRMax() float64 {
	if c.RMax == nil {
		return 0.5
	}
	return *c.RMax
}

// GetNBins returns the nbins value or the default.
func (c *RunConfig) GetNBins() int {
	if c.NBins == nil {
		return 4
	}
	return *c.NBins
}

// GetLogBins returns the log_bins value or the default.
func (c *RunConfig) GetLogBins() bool {
	if c.LogBins == nil {
		return false
	}
	return *c.LogBins
}

// GetPeriod returns the period with null entries mapped to +Inf, or nil when
// no period is configured.
func (c *RunConfig) GetPeriod() []float64 {
	if c.Period == nil {
		return nil
	}
	out := make([]float64, len(c.Period))
	for i, p := range c.Period {
		if p == nil {
			out[i] = math.Inf(1)
			continue
		}
		out[i] = *p
	}
	return out
}

// GetEstimator returns the estimator name or the default.
func (c *RunConfig) GetEstimator() string {
	if c.Estimator == nil {
		return estimator.Natural.String()
	}
	return *c.Estimator
}

// GetWorkers returns the workers value or the default (0, all CPUs).
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetBruteForceThreshold returns the brute_force_threshold value or the
// default (0, the pair counter's own default).
func (c *RunConfig) GetBruteForceThreshold() int64 {
	if c.BruteForceThreshold == nil {
		return 0
	}
	return *c.BruteForceThreshold
}
