/*
Package cli implements the calheatmap command line.

PURPOSE:
  One binary for the HTTP service and for ad-hoc engine queries:

    calheatmap serve                          Run the HTTP API
    calheatmap start-of <unit> <instant>      Start of the interval containing instant
    calheatmap sequence <unit> <instant>      Consecutive interval starts
    calheatmap render <calendar-file>         Print a stored series as a heatmap

CONFIGURATION:
  Every flag can also be set through the environment with the CALHEATMAP_
  prefix, dashes becoming underscores (CALHEATMAP_LOG_FORMAT=json).
  Flags win over the environment.

OUTPUT:
  --format text (default) prints human-readable lines. --format json wraps
  results and errors in {"status", "data" | "error"}.

SEE ALSO:
  - api/server.go: Router used by serve
  - interval/engine.go: Engine behind start-of and sequence
*/
package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/calheatmap/interval"
)

// EnvPrefix is the environment prefix for all flags.
const EnvPrefix = "CALHEATMAP"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Locale   string
	Timezone string

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// EngineConfig returns the engine configuration selected by the global flags.
func (o *RootOptions) EngineConfig() interval.Config {
	return interval.Config{Locale: o.Locale, Timezone: o.Timezone}
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	opts.v = viper.New()
	opts.v.SetEnvPrefix(EnvPrefix)
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "calheatmap",
		Short: "Calendar heatmap interval engine",
		Long: `Computes locale- and timezone-aware interval boundaries (minute to year)
and lays out calendar heatmaps from stored data series.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			opts.Verbose = opts.v.GetBool("verbose")
			opts.Format = opts.v.GetString("format")
			opts.Locale = opts.v.GetString("locale")
			opts.Timezone = opts.v.GetString("timezone")

			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Locale, "locale", "en", "locale deciding the first day of the week")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "timezone", "", "IANA timezone (empty for the host zone)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewStartOfCommand(opts))
	cmd.AddCommand(NewSequenceCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
// Errors are printed in the selected output format.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr}
	if opts.Format == "json" {
		f.Writer = stdout
	}
	f.Error(err)
	return GetExitCode(err)
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
