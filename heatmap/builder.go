/*
builder.go - Calendar layout and data aggregation

PURPOSE:
  Turns Options into a Calendar: Range domains, each partitioned into
  subdomain cells, with data points aggregated per cell.

LAYOUT:
  domains = Sequence(Domain, Start, Count(Range))
  cells   = Sequence(SubDomain, domainStart, Bound(nextDomainStart - 1ms))

  A week cell can start before its month domain (partial first week); the
  same week then also closes the previous domain. Both cells show the same
  bucket.

AGGREGATION:
  Each point lands in the cell StartOf(SubDomain, point.At). Points outside
  the calendar are ignored. Values in one cell are combined by GroupY.

SEE ALSO:
  - options.go: Validation and navigation
  - aggregate.go: GroupY aggregators
  - interval/engine.go: Sequence and StartOf
*/
package heatmap

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/calheatmap/interval"
)

// =============================================================================
// CALENDAR - Laid-out domains and cells
// =============================================================================

type Cell struct {
	Start     time.Time
	End       time.Time
	Value     decimal.Decimal
	Count     int // Number of points aggregated into the cell
	Highlight bool
}

// HasData reports whether any point fell in the cell.
func (c Cell) HasData() bool { return c.Count > 0 }

type Domain struct {
	Start time.Time
	End   time.Time
	Cells []Cell
}

type Calendar struct {
	Options Options
	Config  interval.Config
	Domains []Domain
}

// Span returns [from, to) covering every cell of the calendar.
func (c *Calendar) Span() (time.Time, time.Time) {
	if len(c.Domains) == 0 {
		return time.Time{}, time.Time{}
	}
	first := c.Domains[0]
	last := c.Domains[len(c.Domains)-1]
	from, to := first.Start, last.End
	if len(first.Cells) > 0 && first.Cells[0].Start.Before(from) {
		from = first.Cells[0].Start
	}
	if n := len(last.Cells); n > 0 && last.Cells[n-1].End.After(to) {
		to = last.Cells[n-1].End
	}
	return from, to
}

// CellCount is the total number of cells across domains.
func (c *Calendar) CellCount() int {
	n := 0
	for _, d := range c.Domains {
		n += len(d.Cells)
	}
	return n
}

// Min returns the smallest value among cells with data.
func (c *Calendar) Min() (decimal.Decimal, bool) {
	return c.extent(func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

// Max returns the largest value among cells with data.
func (c *Calendar) Max() (decimal.Decimal, bool) {
	return c.extent(func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

func (c *Calendar) extent(better func(a, b decimal.Decimal) bool) (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, d := range c.Domains {
		for _, cell := range d.Cells {
			if !cell.HasData() {
				continue
			}
			if !found || better(cell.Value, best) {
				best = cell.Value
				found = true
			}
		}
	}
	return best, found
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder lays out calendars with a fixed engine. Safe for concurrent use.
type Builder struct {
	engine *interval.Engine
}

func NewBuilder(engine *interval.Engine) *Builder {
	return &Builder{engine: engine}
}

// Engine returns the interval engine backing the builder.
func (b *Builder) Engine() *interval.Engine { return b.engine }

// Layout computes domains and empty cells.
func (b *Builder) Layout(opts Options) (*Calendar, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.GroupY == "" {
		opts.GroupY = AggregateSum
	}

	starts, err := b.engine.Sequence(opts.Domain, interval.At(opts.Start), interval.Count(opts.Range))
	if err != nil {
		return nil, err
	}
	end, err := b.engine.Shift(opts.Domain, interval.At(starts.Last()), 1)
	if err != nil {
		return nil, err
	}

	cal := &Calendar{Options: opts, Config: b.engine.Config(), Domains: make([]Domain, len(starts))}
	total := 0
	for i, ds := range starts {
		de := end
		if i+1 < len(starts) {
			de = starts[i+1]
		}

		cellStarts, err := b.engine.Sequence(opts.SubDomain, interval.At(ds), interval.Bound(interval.At(de.Add(-time.Millisecond))))
		if err != nil {
			return nil, err
		}
		total += len(cellStarts)
		if total > MaxCells {
			return nil, fmt.Errorf("%w: more than %d cells", ErrTooManyCells, MaxCells)
		}

		cellEnd, err := b.engine.Shift(opts.SubDomain, interval.At(cellStarts.Last()), 1)
		if err != nil {
			return nil, err
		}
		cells := make([]Cell, len(cellStarts))
		for j, cs := range cellStarts {
			ce := cellEnd
			if j+1 < len(cellStarts) {
				ce = cellStarts[j+1]
			}
			cells[j] = Cell{Start: cs, End: ce}
		}
		cal.Domains[i] = Domain{Start: ds, End: de, Cells: cells}
	}

	b.highlight(cal, opts.Highlight)
	return cal, nil
}

// Build lays out the calendar and aggregates points into it.
func (b *Builder) Build(opts Options, points []Point) (*Calendar, error) {
	cal, err := b.Layout(opts)
	if err != nil {
		return nil, err
	}
	if err := b.fill(cal, points); err != nil {
		return nil, err
	}
	return cal, nil
}

// BuildFromStore lays out the calendar and loads the series' points for
// exactly the calendar span.
func (b *Builder) BuildFromStore(ctx context.Context, store Store, series SeriesID, opts Options) (*Calendar, error) {
	cal, err := b.Layout(opts)
	if err != nil {
		return nil, err
	}
	from, to := cal.Span()
	points, err := store.LoadRange(ctx, series, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load series %s: %w", series, err)
	}
	if err := b.fill(cal, points); err != nil {
		return nil, err
	}
	return cal, nil
}

func (b *Builder) fill(cal *Calendar, points []Point) error {
	buckets := make(map[int64][]decimal.Decimal)
	for _, p := range points {
		key, err := b.engine.StartOf(cal.Options.SubDomain, interval.At(p.At))
		if err != nil {
			return err
		}
		buckets[key] = append(buckets[key], p.Value)
	}

	for i := range cal.Domains {
		cells := cal.Domains[i].Cells
		for j := range cells {
			values := buckets[cells[j].Start.UnixMilli()]
			if len(values) == 0 {
				continue
			}
			cells[j].Count = len(values)
			cells[j].Value = cal.Options.GroupY.Aggregate(values)
		}
	}
	return nil
}

func (b *Builder) highlight(cal *Calendar, at []time.Time) {
	for _, h := range at {
		for i := range cal.Domains {
			cells := cal.Domains[i].Cells
			for j := range cells {
				if !h.Before(cells[j].Start) && h.Before(cells[j].End) {
					cells[j].Highlight = true
				}
			}
		}
	}
}
