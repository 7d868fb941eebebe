package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/calheatmap/interval"
)

// SequenceOptions holds flags for the sequence command.
type SequenceOptions struct {
	Count int
	Until string
}

// SequenceOutput is the result of sequence.
type SequenceOutput struct {
	Unit     string        `json:"unit"`
	Locale   string        `json:"locale"`
	Timezone string        `json:"timezone"`
	Starts   []StartOutput `json:"starts"`
}

// StartOutput is one interval start.
type StartOutput struct {
	Start   string `json:"start"`
	StartMs int64  `json:"start_ms"`
}

// NewSequenceCommand creates the sequence command.
func NewSequenceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SequenceOptions{}

	cmd := &cobra.Command{
		Use:   "sequence <unit> <instant> (--count N | --until INSTANT)",
		Short: "Print consecutive interval starts",
		Long: `Print the starts of consecutive intervals, beginning with the interval
containing <instant>. With --count, exactly N starts are printed. With --until,
every interval up to and including the one containing the bound is printed.`,
		Example: `  calheatmap sequence day 2024-03-30 --count 3 --timezone Europe/Paris
  calheatmap sequence month 2020-01-15 --until 2020-04-01 --format json`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Count = rootOpts.v.GetInt("count")
			opts.Until = rootOpts.v.GetString("until")
			return runSequence(rootOpts, opts, args[0], args[1], cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "number of intervals")
	cmd.Flags().StringVar(&opts.Until, "until", "", "last instant to cover (inclusive)")
	cmd.MarkFlagsMutuallyExclusive("count", "until")
	cmd.MarkFlagsOneRequired("count", "until")

	return cmd
}

func runSequence(rootOpts *RootOptions, opts *SequenceOptions, unitName, instant string, w io.Writer) error {
	engine, u, at, err := parseQuery(rootOpts, unitName, instant)
	if err != nil {
		return err
	}

	rng := interval.Count(opts.Count)
	if opts.Until != "" {
		until, err := interval.ParseInstant(opts.Until, engine.Location())
		if err != nil {
			return err
		}
		rng = interval.Bound(until)
	}

	seq, err := engine.Sequence(u, at, rng)
	if err != nil {
		return err
	}

	cfg := engine.Config()
	out := SequenceOutput{
		Unit:     u.String(),
		Locale:   cfg.Locale,
		Timezone: cfg.Timezone,
		Starts:   make([]StartOutput, len(seq)),
	}
	for i, t := range seq {
		out.Starts[i] = StartOutput{Start: t.Format(time.RFC3339), StartMs: t.UnixMilli()}
	}

	f := &OutputFormatter{Format: rootOpts.Format, Writer: w}
	return f.Success(out, func(w io.Writer) {
		for _, s := range out.Starts {
			fmt.Fprintf(w, "%s %d\n", s.Start, s.StartMs)
		}
	})
}
