package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
	"github.com/warp/calheatmap/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "heatmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(d int) time.Time { return time.Date(2024, 3, d, 9, 30, 0, 0, time.UTC) }

var _ heatmap.Store = (*sqlite.Store)(nil)

func TestStore_LoadRangeIsHalfOpenAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN: points appended out of order
	for _, d := range []int{4, 1, 3, 2} {
		require.NoError(t, s.Append(ctx, heatmap.NewPoint("commits", day(d), decimal.NewFromInt(int64(d)))))
	}

	// WHEN: loading [day 2, day 4)
	got, err := s.LoadRange(ctx, "commits", day(2), day(4))
	require.NoError(t, err)

	// THEN: only days 2 and 3 come back, in order, with exact values
	require.Len(t, got, 2)
	assert.True(t, got[0].At.Equal(day(2)))
	assert.True(t, got[1].At.Equal(day(3)))
	assert.True(t, got[1].Value.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, heatmap.SeriesID("commits"), got[0].Series)
}

func TestStore_DuplicateIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	p := heatmap.NewPoint("commits", day(1), decimal.NewFromInt(1))
	p.IdempotencyKey = "push-1"
	require.NoError(t, s.Append(ctx, p))

	retry := heatmap.NewPoint("commits", day(1), decimal.NewFromInt(1))
	retry.IdempotencyKey = "push-1"
	assert.ErrorIs(t, s.Append(ctx, retry), heatmap.ErrDuplicateIdempotencyKey)

	exists, err := s.Exists(ctx, "push-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(ctx, "push-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_AppendBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN: a batch whose last point repeats a key
	a := heatmap.NewPoint("commits", day(1), decimal.NewFromInt(1))
	a.IdempotencyKey = "k"
	b := heatmap.NewPoint("commits", day(2), decimal.NewFromInt(1))
	b.IdempotencyKey = "k"

	// WHEN: the batch is appended
	err := s.AppendBatch(ctx, []heatmap.Point{a, b})

	// THEN: nothing is written
	assert.ErrorIs(t, err, heatmap.ErrDuplicateIdempotencyKey)
	got, err := s.LoadRange(ctx, "commits", day(1), day(9))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ListSeries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AppendBatch(ctx, []heatmap.Point{
		heatmap.NewPoint("b", day(3), decimal.NewFromInt(1)),
		heatmap.NewPoint("a", day(1), decimal.NewFromInt(1)),
		heatmap.NewPoint("a", day(5), decimal.NewFromInt(1)),
	}))

	series, err := s.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, heatmap.SeriesID("a"), series[0].ID)
	assert.Equal(t, 2, series[0].Points)
	assert.True(t, series[0].First.Equal(day(1)))
	assert.True(t, series[0].Last.Equal(day(5)))
}

func TestStore_CalendarLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rec := sqlite.CalendarRecord{ID: "work", Name: "Work", Series: "commits", ConfigJSON: `{"range":12}`}
	require.NoError(t, s.SaveCalendar(ctx, rec))

	got, err := s.GetCalendar(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "Work", got.Name)

	// WHEN: saved again THEN the version is bumped
	rec.Name = "Work 2"
	require.NoError(t, s.SaveCalendar(ctx, rec))
	got, err = s.GetCalendar(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Work 2", got.Name)

	all, err := s.ListCalendars(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteCalendar(ctx, "work"))
	_, err = s.GetCalendar(ctx, "work")
	assert.True(t, heatmap.IsNotFound(err))
	assert.ErrorIs(t, s.DeleteCalendar(ctx, "work"), heatmap.ErrCalendarNotFound)
}

func TestStore_BuildFromStore(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AppendBatch(ctx, []heatmap.Point{
		heatmap.NewPoint("commits", day(1), decimal.NewFromInt(2)),
		heatmap.NewPoint("commits", day(1).Add(time.Hour), decimal.NewFromInt(3)),
		heatmap.NewPoint("commits", day(2), decimal.NewFromInt(1)),
	}))

	engine, err := interval.New(interval.Config{Locale: "en", Timezone: "UTC"})
	require.NoError(t, err)

	opts := heatmap.DefaultOptions(day(1))
	opts.Range = 1
	cal, err := heatmap.NewBuilder(engine).BuildFromStore(ctx, s, "commits", opts)
	require.NoError(t, err)

	cells := cal.Domains[0].Cells
	require.Len(t, cells, 31)
	assert.True(t, cells[0].Value.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 2, cells[0].Count)
	assert.True(t, cells[1].Value.Equal(decimal.NewFromInt(1)))
	assert.False(t, cells[2].HasData())
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Append(ctx, heatmap.NewPoint("a", day(1), decimal.NewFromInt(1))))
	require.NoError(t, s.SaveCalendar(ctx, sqlite.CalendarRecord{ID: "c", Name: "c", Series: "a", ConfigJSON: "{}"}))

	require.NoError(t, s.Reset(ctx))

	series, err := s.ListSeries(ctx)
	require.NoError(t, err)
	assert.Empty(t, series)
	cals, err := s.ListCalendars(ctx)
	require.NoError(t, err)
	assert.Empty(t, cals)
}
