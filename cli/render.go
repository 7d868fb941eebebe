package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warp/calheatmap/api"
	"github.com/warp/calheatmap/factory"
	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
	"github.com/warp/calheatmap/store/sqlite"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	DB    string
	Start string
	Range int
	Shift int
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <calendar-file>",
		Short: "Print a calendar heatmap from stored points",
		Long: `Lay out the calendar defined in <calendar-file> (.json, .yaml or .yml) and
aggregate its series from the database. Text output prints one line per
domain with one column per cell; "." marks a cell without data.`,
		Example: `  calheatmap render contributions.yaml --db ./data/heatmap.db
  calheatmap render contributions.yaml --shift -1 --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DB = rootOpts.v.GetString("db")
			opts.Start = rootOpts.v.GetString("start")
			opts.Range = rootOpts.v.GetInt("range")
			opts.Shift = rootOpts.v.GetInt("shift")
			return runRender(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "calheatmap.db", "SQLite database path")
	cmd.Flags().StringVar(&opts.Start, "start", "", "override the calendar start")
	cmd.Flags().IntVar(&opts.Range, "range", 0, "override the number of domains")
	cmd.Flags().IntVar(&opts.Shift, "shift", 0, "move the window by this many domains")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions, path string) error {
	def, err := loadCalendarFile(path)
	if err != nil {
		return err
	}

	calOpts := def.Options
	if opts.Start != "" {
		at, err := interval.ParseInstant(opts.Start, def.Engine.Location())
		if err != nil {
			return err
		}
		calOpts.Start = at.Time()
	}
	if opts.Range != 0 {
		calOpts.Range = opts.Range
	}
	if opts.Shift != 0 {
		if calOpts, err = heatmap.Navigate(def.Engine, calOpts, opts.Shift); err != nil {
			return err
		}
	}

	store, err := sqlite.New(opts.DB)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer store.Close()

	cal, err := def.Builder().BuildFromStore(cmd.Context(), store, def.Series, calOpts)
	if err != nil {
		return err
	}

	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(api.ToHeatmapDTO(def, cal), func(w io.Writer) {
		writeHeatmapText(w, def, cal)
	})
}

func loadCalendarFile(path string) (*factory.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read calendar", err)
	}

	f := factory.NewCalendarFactory()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParseCalendarYAML(string(b))
	default:
		return f.ParseCalendar(string(b))
	}
}

// domainLabels is the label layout of a domain row, by domain unit.
var domainLabels = map[interval.Unit]string{
	interval.UnitMinute: "2006-01-02T15:04",
	interval.UnitHour:   "2006-01-02T15",
	interval.UnitDay:    "2006-01-02",
	interval.UnitWeek:   "2006-01-02",
	interval.UnitMonth:  "2006-01",
	interval.UnitYear:   "2006",
}

func writeHeatmapText(w io.Writer, def *factory.Definition, cal *heatmap.Calendar) {
	cfg := def.Engine.Config()
	fmt.Fprintf(w, "%s %s %s/%s %s %s %s\n",
		def.ID, def.Series, cal.Options.Domain, cal.Options.SubDomain, cal.Options.GroupY, cfg.Locale, cfg.Timezone)

	layout := domainLabels[cal.Options.Domain]
	for _, d := range cal.Domains {
		cells := make([]string, len(d.Cells))
		for i, c := range d.Cells {
			cells[i] = "."
			if c.HasData() {
				cells[i] = c.Value.String()
			}
		}
		fmt.Fprintf(w, "%s  %s\n", d.Start.Format(layout), strings.Join(cells, " "))
	}
}
