package heatmap_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/heatmap/store"
	"github.com/warp/calheatmap/interval"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func newBuilder(t *testing.T, locale string) *heatmap.Builder {
	t.Helper()
	e, err := interval.New(interval.Config{Locale: locale, Timezone: "UTC"})
	require.NoError(t, err)
	return heatmap.NewBuilder(e)
}

func point(at time.Time, v int64) heatmap.Point {
	return heatmap.NewPoint("commits", at, decimal.NewFromInt(v))
}

func findCell(t *testing.T, cal *heatmap.Calendar, start time.Time) heatmap.Cell {
	t.Helper()
	for _, d := range cal.Domains {
		for _, c := range d.Cells {
			if c.Start.Equal(start) {
				return c
			}
		}
	}
	t.Fatalf("no cell starting at %s", start)
	return heatmap.Cell{}
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestLayout_MonthsOfDays(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.DefaultOptions(date(2020, 1, 15, 0))
	opts.Range = 3

	cal, err := b.Layout(opts)
	require.NoError(t, err)

	require.Len(t, cal.Domains, 3)
	assert.Len(t, cal.Domains[0].Cells, 31)
	assert.Len(t, cal.Domains[1].Cells, 29) // 2020 is a leap year
	assert.Len(t, cal.Domains[2].Cells, 31)
	assert.Equal(t, 91, cal.CellCount())

	assert.True(t, cal.Domains[1].Start.Equal(date(2020, 2, 1, 0)))
	assert.True(t, cal.Domains[2].End.Equal(date(2020, 4, 1, 0)))

	from, to := cal.Span()
	assert.True(t, from.Equal(date(2020, 1, 1, 0)))
	assert.True(t, to.Equal(date(2020, 4, 1, 0)))

	// Cells tile each domain without gaps
	for _, d := range cal.Domains {
		for i := 1; i < len(d.Cells); i++ {
			assert.True(t, d.Cells[i].Start.Equal(d.Cells[i-1].End))
		}
	}
}

func TestLayout_WeeksOverlapMonthBoundaries(t *testing.T) {
	// GIVEN: Month domains with Sunday-started week cells
	b := newBuilder(t, "en")
	opts := heatmap.Options{
		Domain:    interval.UnitMonth,
		SubDomain: interval.UnitWeek,
		Range:     2,
		Start:     date(2020, 1, 2, 0),
	}

	// WHEN: Laying out January and February 2020
	cal, err := b.Layout(opts)
	require.NoError(t, err)

	// THEN: January opens with the week of Dec 29; the week of Jan 26 closes
	// January and opens February
	jan, feb := cal.Domains[0], cal.Domains[1]
	require.Len(t, jan.Cells, 5)
	require.Len(t, feb.Cells, 5)
	assert.True(t, jan.Cells[0].Start.Equal(date(2019, 12, 29, 0)))
	assert.True(t, jan.Cells[4].Start.Equal(date(2020, 1, 26, 0)))
	assert.True(t, feb.Cells[0].Start.Equal(date(2020, 1, 26, 0)))
	assert.True(t, feb.Cells[4].Start.Equal(date(2020, 2, 23, 0)))

	from, to := cal.Span()
	assert.True(t, from.Equal(date(2019, 12, 29, 0)))
	assert.True(t, to.Equal(date(2020, 3, 1, 0)))
}

func TestLayout_RejectsInvalidOptions(t *testing.T) {
	b := newBuilder(t, "en")
	base := heatmap.DefaultOptions(date(2020, 1, 1, 0))

	tests := []struct {
		name   string
		mutate func(o *heatmap.Options)
		target error
	}{
		{"subdomain coarser", func(o *heatmap.Options) { o.Domain, o.SubDomain = interval.UnitDay, interval.UnitMonth }, heatmap.ErrInvalidOptions},
		{"subdomain equal", func(o *heatmap.Options) { o.SubDomain = interval.UnitMonth }, heatmap.ErrInvalidOptions},
		{"zero range", func(o *heatmap.Options) { o.Range = 0 }, heatmap.ErrInvalidOptions},
		{"range above cell limit", func(o *heatmap.Options) { o.Range = heatmap.MaxCells + 1 }, heatmap.ErrInvalidOptions},
		{"huge range", func(o *heatmap.Options) { o.Range = math.MaxInt }, heatmap.ErrInvalidOptions},
		{"no start", func(o *heatmap.Options) { o.Start = time.Time{} }, heatmap.ErrInvalidOptions},
		{"unknown unit", func(o *heatmap.Options) { o.Domain = interval.Unit(17) }, interval.ErrInvalidUnit},
		{"unknown aggregator", func(o *heatmap.Options) { o.GroupY = "mode" }, heatmap.ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.mutate(&opts)

			_, err := b.Layout(opts)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, heatmap.IsClientError(err))
		})
	}
}

func TestLayout_CellLimit(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.Options{
		Domain:    interval.UnitYear,
		SubDomain: interval.UnitMinute,
		Range:     1,
		Start:     date(2020, 1, 1, 0),
	}

	_, err := b.Layout(opts)
	assert.ErrorIs(t, err, heatmap.ErrTooManyCells)
}

func TestLayout_Highlight(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.DefaultOptions(date(2020, 1, 1, 0))
	opts.Range = 1
	opts.Highlight = []time.Time{date(2020, 1, 10, 13)}

	cal, err := b.Layout(opts)
	require.NoError(t, err)

	for _, c := range cal.Domains[0].Cells {
		assert.Equal(t, c.Start.Equal(date(2020, 1, 10, 0)), c.Highlight, c.Start)
	}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestBuild_AggregatesPointsPerCell(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.DefaultOptions(date(2020, 1, 1, 0))
	opts.Range = 3

	points := []heatmap.Point{
		point(date(2020, 1, 2, 10), 3),
		point(date(2020, 1, 2, 18), 5),
		point(date(2020, 1, 3, 0), 2),
		point(date(2019, 12, 31, 12), 100), // before the calendar
		point(date(2020, 4, 1, 0), 100),    // after the calendar
	}

	cal, err := b.Build(opts, points)
	require.NoError(t, err)

	jan2 := findCell(t, cal, date(2020, 1, 2, 0))
	assert.Equal(t, "8", jan2.Value.String())
	assert.Equal(t, 2, jan2.Count)

	jan3 := findCell(t, cal, date(2020, 1, 3, 0))
	assert.Equal(t, "2", jan3.Value.String())

	jan4 := findCell(t, cal, date(2020, 1, 4, 0))
	assert.False(t, jan4.HasData())

	lo, ok := cal.Min()
	require.True(t, ok)
	hi, _ := cal.Max()
	assert.Equal(t, "2", lo.String())
	assert.Equal(t, "8", hi.String())
}

func TestBuild_GroupYAverage(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.DefaultOptions(date(2020, 1, 1, 0))
	opts.Range = 1
	opts.GroupY = heatmap.AggregateAverage

	cal, err := b.Build(opts, []heatmap.Point{
		point(date(2020, 1, 2, 10), 3),
		point(date(2020, 1, 2, 18), 5),
	})
	require.NoError(t, err)

	assert.Equal(t, "4", findCell(t, cal, date(2020, 1, 2, 0)).Value.String())
}

func TestBuild_EmptyCalendarHasNoExtent(t *testing.T) {
	b := newBuilder(t, "en")

	cal, err := b.Build(heatmap.DefaultOptions(date(2020, 1, 1, 0)), nil)
	require.NoError(t, err)

	_, ok := cal.Max()
	assert.False(t, ok)
}

func TestBuildFromStore_LoadsCalendarSpan(t *testing.T) {
	// GIVEN: A store with points inside and outside February
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.AppendBatch(ctx, []heatmap.Point{
		point(date(2020, 1, 31, 23), 7),
		point(date(2020, 2, 1, 0), 1),
		point(date(2020, 2, 29, 23), 4),
		point(date(2020, 3, 1, 0), 9),
	}))

	b := newBuilder(t, "fr")
	opts := heatmap.DefaultOptions(date(2020, 2, 14, 0))
	opts.Range = 1

	// WHEN: Building February
	cal, err := b.BuildFromStore(ctx, mem, "commits", opts)
	require.NoError(t, err)

	// THEN: Only February points are aggregated
	total := 0
	for _, c := range cal.Domains[0].Cells {
		total += c.Count
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, "4", findCell(t, cal, date(2020, 2, 29, 0)).Value.String())
}

// =============================================================================
// NAVIGATION
// =============================================================================

func TestNavigate(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.DefaultOptions(date(2020, 1, 15, 0))

	prev, err := heatmap.Navigate(b.Engine(), opts, -1)
	require.NoError(t, err)
	assert.True(t, prev.Start.Equal(date(2019, 12, 1, 0)))

	next, err := heatmap.Navigate(b.Engine(), opts, 12)
	require.NoError(t, err)
	assert.True(t, next.Start.Equal(date(2021, 1, 1, 0)))
}

func TestNavigate_RejectsShiftBeyondLimit(t *testing.T) {
	b := newBuilder(t, "en")
	opts := heatmap.DefaultOptions(date(2020, 1, 15, 0))

	_, err := heatmap.Navigate(b.Engine(), opts, heatmap.MaxShift+1)
	assert.ErrorIs(t, err, heatmap.ErrInvalidOptions)

	_, err = heatmap.Navigate(b.Engine(), opts, math.MinInt)
	assert.ErrorIs(t, err, heatmap.ErrInvalidOptions)
}
