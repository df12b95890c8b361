package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/tpcf/internal/monitoring"
	"github.com/banshee-data/tpcf/internal/paircount"
	"github.com/banshee-data/tpcf/internal/tpcf"
	"github.com/banshee-data/tpcf/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. TPCF_MAX_SAMPLE_SIZE.
const envPrefix = "TPCF"

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose    bool
	Trace      bool
	Format     string // "text" | "json" | "csv"
	ConfigFile string

	v *viper.Viper
}

// validFormats defines the allowed output formats.
var validFormats = []string{"text", "json", "csv"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	opts.v.SetEnvPrefix(envPrefix)
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "tpcf",
		Short:         "Two-point correlation functions of 3D point catalogues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose, opts.Trace)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log rejected requests, subsampling and grid geometry to stderr")
	cmd.PersistentFlags().BoolVar(&opts.Trace, "trace", false, "also log per-count and per-shard timings")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|csv)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "JSON run configuration file")

	cmd.AddCommand(newComputeCommand(opts))
	cmd.AddCommand(newDefaultsCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging routes the engine's ops and diag streams to w when
// verbose is set, and the trace streams when trace is set.
func configureLogging(w io.Writer, verbose, trace bool) {
	var ops, diag, tr io.Writer
	if verbose || trace {
		ops, diag = w, w
	}
	if trace {
		tr = w
	}
	tpcf.SetLogWriters(ops, diag, tr)
	paircount.SetLogWriters(ops, diag, tr)
	monitoring.SetOutput(w)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "tpcf %s\n", version.String())
			return err
		},
	}
}
