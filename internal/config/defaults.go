package config

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCatalog is returned for a simulation / halo-finder
// combination with no processed catalogue.
var ErrUnsupportedCatalog = errors.New("unsupported simulation catalogue")

// Cosmology is a flat ΛCDM parameter set.
type Cosmology struct {
	Name   string  `json:"name"`
	H0     float64 `json:"h0"`    // km/s/Mpc
	Om0    float64 `json:"om0"`   // matter density today
	Ob0    float64 `json:"ob0"`   // baryon density today
	Tcmb0  float64 `json:"tcmb0"` // K
	Neff   float64 `json:"neff"`  // effective neutrino species
	Ns     float64 `json:"ns"`    // scalar spectral index
	Sigma8 float64 `json:"sigma8"`
}

// WMAP5 returns the WMAP 5-year cosmology.
func WMAP5() Cosmology {
	return Cosmology{
		Name:   "WMAP5",
		H0:     70.2,
		Om0:    0.277,
		Ob0:    0.0459,
		Tcmb0:  2.725,
		Neff:   3.04,
		Ns:     0.962,
		Sigma8: 0.817,
	}
}

// SimDefaults selects which halo catalogue a caller fetches before running
// the correlation function. None of these values enter the pair counting.
type SimDefaults struct {
	SimName    string  `json:"simname"`
	HaloFinder string  `json:"halo_finder"`
	Redshift   float64 `json:"redshift"`

	// Completeness cut: halos whose MassLikeVariable never exceeded
	// NumPtclRequirement particle masses are dropped.
	NumPtclRequirement int    `json:"num_ptcl_requirement"`
	MassLikeVariable   string `json:"mass_like_variable"`

	Cosmology Cosmology `json:"cosmology"`

	ProcessedHaloTablesURL string `json:"processed_halo_tables_url"`
	ParticleTablesURL      string `json:"particle_tables_url"`
	VersionName            string `json:"version_name"`
	CacheLocation          string `json:"cache_location"`
}

// DefaultSimDefaults returns the standard catalogue selection.
func DefaultSimDefaults() SimDefaults {
	return SimDefaults{
		SimName:                "bolshoi",
		HaloFinder:             "rockstar",
		Redshift:               0.0,
		NumPtclRequirement:     300,
		MassLikeVariable:       "halo_mpeak",
		Cosmology:              WMAP5(),
		ProcessedHaloTablesURL: "http://www.astro.yale.edu/aphearin/Data_files/halo_catalogs",
		ParticleTablesURL:      "http://www.astro.yale.edu/aphearin/Data_files/particle_catalogs",
		VersionName:            "halotools.alpha.version0",
		CacheLocation:          "pkg_default",
	}
}

// supportedCatalogs lists the simulations processed for each halo finder.
var supportedCatalogs = map[string][]string{
	"rockstar": {"bolshoi", "bolplanck", "multidark", "consuelo"},
	"bdm":      {"bolshoi"},
}

// SupportedCatalog reports an error unless simname has a processed
// catalogue for halo finder.
func SupportedCatalog(simname, haloFinder string) error {
	sims, ok := supportedCatalogs[haloFinder]
	if !ok {
		return fmt.Errorf("%w: halo finder %q", ErrUnsupportedCatalog, haloFinder)
	}
	for _, s := range sims {
		if s == simname {
			return nil
		}
	}
	return fmt.Errorf("%w: simname %q with halo finder %q", ErrUnsupportedCatalog, simname, haloFinder)
}

// Validate checks the catalogue selection and the completeness cut.
func (d SimDefaults) Validate() error {
	if err := SupportedCatalog(d.SimName, d.HaloFinder); err != nil {
		return err
	}
	if d.Redshift < 0 {
		return fmt.Errorf("redshift must be non-negative, got %v", d.Redshift)
	}
	if d.NumPtclRequirement < 1 {
		return fmt.Errorf("num_ptcl_requirement must be at least 1, got %d", d.NumPtclRequirement)
	}
	return nil
}
