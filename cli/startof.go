package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/calheatmap/interval"
)

// IntervalOutput is the result of start-of.
type IntervalOutput struct {
	Unit     string `json:"unit"`
	Locale   string `json:"locale"`
	Timezone string `json:"timezone"`
	Start    string `json:"start"`
	StartMs  int64  `json:"start_ms"`
	End      string `json:"end"`
	EndMs    int64  `json:"end_ms"`
}

// NewStartOfCommand creates the start-of command.
func NewStartOfCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start-of <unit> <instant>",
		Short: "Print the start of the interval containing an instant",
		Long: `Print the start (and exclusive end) of the minute, hour, day, week, month
or year containing <instant>.

<instant> is RFC 3339, YYYY-MM-DD (midnight in --timezone) or epoch milliseconds.
Weeks start on the first day of the week of --locale.`,
		Example: `  calheatmap start-of week 2020-01-02T04:24:25Z --locale fr --timezone UTC
  calheatmap start-of day 1577939065256 --timezone America/New_York`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStartOf(rootOpts, args[0], args[1], cmd.OutOrStdout())
		},
	}
}

func runStartOf(opts *RootOptions, unitName, instant string, w io.Writer) error {
	engine, u, at, err := parseQuery(opts, unitName, instant)
	if err != nil {
		return err
	}

	iv, err := engine.Interval(u, at)
	if err != nil {
		return err
	}

	cfg := engine.Config()
	out := IntervalOutput{
		Unit:     u.String(),
		Locale:   cfg.Locale,
		Timezone: cfg.Timezone,
		Start:    iv.Start.Format(time.RFC3339),
		StartMs:  iv.Start.UnixMilli(),
		End:      iv.End.Format(time.RFC3339),
		EndMs:    iv.End.UnixMilli(),
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "%-9s %s\n", "unit", out.Unit)
		fmt.Fprintf(w, "%-9s %s\n", "locale", out.Locale)
		fmt.Fprintf(w, "%-9s %s\n", "timezone", out.Timezone)
		fmt.Fprintf(w, "%-9s %s\n", "start", out.Start)
		fmt.Fprintf(w, "%-9s %d\n", "start_ms", out.StartMs)
		fmt.Fprintf(w, "%-9s %s\n", "end", out.End)
	})
}

// parseQuery builds the engine from the global flags and parses unit and instant.
func parseQuery(opts *RootOptions, unitName, instant string) (*interval.Engine, interval.Unit, interval.Instant, error) {
	engine, err := interval.New(opts.EngineConfig())
	if err != nil {
		return nil, 0, interval.Instant{}, err
	}
	u, err := interval.ParseUnit(unitName)
	if err != nil {
		return nil, 0, interval.Instant{}, err
	}
	at, err := interval.ParseInstant(instant, engine.Location())
	if err != nil {
		return nil, 0, interval.Instant{}, err
	}
	return engine, u, at, nil
}
