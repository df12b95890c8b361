package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/banshee-data/tpcf/internal/config"
	"github.com/spf13/cobra"
)

// defaultsReport is what the defaults command prints.
type defaultsReport struct {
	Simulation config.SimDefaults `json:"simulation"`
	Run        *config.RunConfig  `json:"run"`
}

func newDefaultsCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the simulation and run defaults",
		Long: `Print the default catalogue selection (simulation, halo finder,
completeness cut, cosmology) and the run parameters compute uses when
nothing overrides them. With --config the run section reflects that file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim := config.DefaultSimDefaults()
			if err := sim.Validate(); err != nil {
				return err
			}
			run := config.DefaultRunConfig()
			if rootOpts.ConfigFile != "" {
				loaded, err := config.LoadRunConfig(rootOpts.ConfigFile)
				if err != nil {
					return err
				}
				run = loaded
			}
			rep := defaultsReport{Simulation: sim, Run: run}
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return writeDefaults(cmd.OutOrStdout(), rep)
		},
	}
}

func writeDefaults(w io.Writer, rep defaultsReport) error {
	sim, run := rep.Simulation, rep.Run
	edges, err := run.Edges()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "simname\t%s\n", sim.SimName)
	fmt.Fprintf(tw, "halo_finder\t%s\n", sim.HaloFinder)
	fmt.Fprintf(tw, "redshift\t%g\n", sim.Redshift)
	fmt.Fprintf(tw, "completeness\t%s > %d particles\n", sim.MassLikeVariable, sim.NumPtclRequirement)
	fmt.Fprintf(tw, "cosmology\t%s (H0=%g Om0=%g Ob0=%g)\n", sim.Cosmology.Name, sim.Cosmology.H0, sim.Cosmology.Om0, sim.Cosmology.Ob0)
	fmt.Fprintf(tw, "version_name\t%s\n", sim.VersionName)
	fmt.Fprintf(tw, "cache_location\t%s\n", sim.CacheLocation)
	fmt.Fprintf(tw, "estimator\t%s\n", run.GetEstimator())
	fmt.Fprintf(tw, "edges\t%v\n", edges)
	if p := run.GetPeriod(); p != nil {
		fmt.Fprintf(tw, "period\t%v\n", p)
	}
	return tw.Flush()
}
