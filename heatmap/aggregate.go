package heatmap

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR - How values falling in one cell are combined
// =============================================================================

type Aggregator string

const (
	AggregateSum     Aggregator = "sum"
	AggregateCount   Aggregator = "count"
	AggregateMin     Aggregator = "min"
	AggregateMax     Aggregator = "max"
	AggregateAverage Aggregator = "average"
	AggregateMedian  Aggregator = "median"
)

var aggregators = []Aggregator{
	AggregateSum, AggregateCount, AggregateMin, AggregateMax, AggregateAverage, AggregateMedian,
}

// ParseAggregator maps a name to an Aggregator. Empty means sum.
func ParseAggregator(name string) (Aggregator, error) {
	n := Aggregator(strings.ToLower(strings.TrimSpace(name)))
	if n == "" {
		return AggregateSum, nil
	}
	if n == "avg" {
		return AggregateAverage, nil
	}
	for _, a := range aggregators {
		if a == n {
			return a, nil
		}
	}
	return "", &OptionsError{Field: "groupY", Reason: "must be one of sum, count, min, max, average, median, got " + string(n)}
}

func (a Aggregator) Valid() bool {
	for _, x := range aggregators {
		if x == a {
			return true
		}
	}
	return false
}

// Aggregate combines values. An empty input yields zero.
func (a Aggregator) Aggregate(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	switch a {
	case AggregateCount:
		return decimal.NewFromInt(int64(len(values)))
	case AggregateMin:
		return decimal.Min(values[0], values[1:]...)
	case AggregateMax:
		return decimal.Max(values[0], values[1:]...)
	case AggregateAverage:
		return decimal.Avg(values[0], values[1:]...)
	case AggregateMedian:
		sorted := append([]decimal.Decimal(nil), values...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return decimal.Avg(sorted[mid-1], sorted[mid])
	default:
		return decimal.Sum(values[0], values[1:]...)
	}
}
