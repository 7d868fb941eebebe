package heatmap_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/calheatmap/heatmap"
)

func decimals(vs ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vs))
	for i, v := range vs {
		out[i] = heatmap.MustParseDecimal(v)
	}
	return out
}

func TestAggregator_Aggregate(t *testing.T) {
	values := decimals("4", "1.5", "10", "2")

	tests := []struct {
		agg  heatmap.Aggregator
		want string
	}{
		{heatmap.AggregateSum, "17.5"},
		{heatmap.AggregateCount, "4"},
		{heatmap.AggregateMin, "1.5"},
		{heatmap.AggregateMax, "10"},
		{heatmap.AggregateAverage, "4.375"},
		{heatmap.AggregateMedian, "3"},
	}

	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			got := tt.agg.Aggregate(values)
			assert.True(t, heatmap.MustParseDecimal(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestAggregator_MedianOdd(t *testing.T) {
	got := heatmap.AggregateMedian.Aggregate(decimals("9", "1", "5"))
	assert.Equal(t, "5", got.String())
}

func TestAggregator_EmptyIsZero(t *testing.T) {
	assert.True(t, heatmap.AggregateMax.Aggregate(nil).IsZero())
}

func TestParseAggregator(t *testing.T) {
	got, err := heatmap.ParseAggregator("")
	require.NoError(t, err)
	assert.Equal(t, heatmap.AggregateSum, got)

	got, err = heatmap.ParseAggregator("AVG")
	require.NoError(t, err)
	assert.Equal(t, heatmap.AggregateAverage, got)

	_, err = heatmap.ParseAggregator("mode")
	assert.ErrorIs(t, err, heatmap.ErrInvalidOptions)
}
