package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/calheatmap/factory"
	"github.com/warp/calheatmap/heatmap"
	"github.com/warp/calheatmap/interval"
)

const commitsJSON = `{
	"id": "commits",
	"name": "Commits",
	"series": "git",
	"date": {"start": "2020-01-01", "locale": "fr", "timezone": "Europe/Paris"},
	"domain": {"type": "week"},
	"subDomain": {"type": "day"},
	"range": 4,
	"data": {"groupY": "max"}
}`

func TestParseCalendar_JSON(t *testing.T) {
	f := factory.NewCalendarFactory()

	def, err := f.ParseCalendar(commitsJSON)
	require.NoError(t, err)

	assert.Equal(t, "commits", def.ID)
	assert.Equal(t, heatmap.SeriesID("git"), def.Series)
	assert.Equal(t, interval.LocaleFrench, def.Engine.Locale())
	assert.Equal(t, "Europe/Paris", def.Engine.Location().String())
	assert.Equal(t, interval.UnitWeek, def.Options.Domain)
	assert.Equal(t, interval.UnitDay, def.Options.SubDomain)
	assert.Equal(t, 4, def.Options.Range)
	assert.Equal(t, heatmap.AggregateMax, def.Options.GroupY)
	assert.True(t, def.Options.Start.Equal(time.Date(2019, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestParseCalendar_YAMLMatchesJSON(t *testing.T) {
	f := factory.NewCalendarFactory()

	def, err := f.ParseCalendarYAML(`
id: commits
name: Commits
series: git
date:
  start: "2020-01-01"
  locale: fr
  timezone: Europe/Paris
domain:
  type: week
subDomain:
  type: day
range: 4
data:
  groupY: max
`)
	require.NoError(t, err)

	fromJSON, err := f.ParseCalendar(commitsJSON)
	require.NoError(t, err)
	assert.Equal(t, f.ToJSON(fromJSON), f.ToJSON(def))
}

func TestParseCalendar_Defaults(t *testing.T) {
	// GIVEN: a minimal definition and a fixed clock
	now := time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC)
	f := factory.NewCalendarFactory().WithClock(func() time.Time { return now })

	// WHEN: parsing
	def, err := f.ParseCalendar(`{"id": "c", "series": "s", "date": {"timezone": "UTC"}}`)
	require.NoError(t, err)

	// THEN: month/day/12/sum starting at the current year
	assert.Equal(t, "c", def.Name)
	assert.Equal(t, interval.LocaleEnglish, def.Engine.Locale())
	assert.Equal(t, interval.UnitMonth, def.Options.Domain)
	assert.Equal(t, interval.UnitDay, def.Options.SubDomain)
	assert.Equal(t, 12, def.Options.Range)
	assert.Equal(t, heatmap.AggregateSum, def.Options.GroupY)
	assert.True(t, def.Options.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseCalendar_Highlight(t *testing.T) {
	f := factory.NewCalendarFactory()

	def, err := f.ParseCalendar(`{"id": "c", "series": "s",
		"date": {"start": "2024-01-01", "timezone": "UTC", "highlight": ["2024-01-15", "1704067200000"]}}`)
	require.NoError(t, err)

	require.Len(t, def.Options.Highlight, 2)
	assert.True(t, def.Options.Highlight[0].Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, def.Options.Highlight[1].Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseCalendar_Rejects(t *testing.T) {
	f := factory.NewCalendarFactory()

	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{"missing id", `{"series": "s"}`, heatmap.ErrInvalidOptions},
		{"missing series", `{"id": "c"}`, heatmap.ErrInvalidOptions},
		{"bad locale", `{"id": "c", "series": "s", "date": {"locale": "xx-invalid-!"}}`, interval.ErrInvalidLocale},
		{"bad timezone", `{"id": "c", "series": "s", "date": {"timezone": "Mars/Olympus"}}`, interval.ErrInvalidTimezone},
		{"bad unit", `{"id": "c", "series": "s", "domain": {"type": "fortnight"}}`, interval.ErrInvalidUnit},
		{"subdomain not finer", `{"id": "c", "series": "s", "domain": {"type": "day"}, "subDomain": {"type": "month"}}`, heatmap.ErrInvalidOptions},
		{"bad start", `{"id": "c", "series": "s", "date": {"start": "soon"}}`, interval.ErrInvalidInstant},
		{"bad range", `{"id": "c", "series": "s", "range": -2}`, heatmap.ErrInvalidOptions},
		{"range above cell limit", `{"id": "c", "series": "s", "range": 1152921504606846976}`, heatmap.ErrInvalidOptions},
		{"bad aggregator", `{"id": "c", "series": "s", "data": {"groupY": "mode"}}`, heatmap.ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseCalendar(tt.json)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, heatmap.IsClientError(err))
		})
	}

	_, err := f.ParseCalendar(`{not json`)
	assert.Error(t, err)
}

func TestMarshalCalendar_RoundTrip(t *testing.T) {
	f := factory.NewCalendarFactory()

	def, err := f.ParseCalendar(commitsJSON)
	require.NoError(t, err)

	encoded, err := f.MarshalCalendar(def)
	require.NoError(t, err)

	again, err := f.ParseCalendar(encoded)
	require.NoError(t, err)
	assert.True(t, again.Options.Start.Equal(def.Options.Start))
	assert.Equal(t, def.Options.GroupY, again.Options.GroupY)
	assert.Equal(t, def.Engine.Config(), again.Engine.Config())
}
