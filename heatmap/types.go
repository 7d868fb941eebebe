/*
Package heatmap lays out calendar heatmaps and aggregates data into them.

PURPOSE:
  A calendar heatmap shows Range consecutive domains (e.g. months), each
  split into subdomain cells (e.g. days). This package computes that layout
  from the interval engine and buckets data points into the cells. Drawing
  the grid, colors and tooltips is left to the renderer.

KEY CONCEPTS IN THIS FILE (types.go):
  - Point: A timestamped value in a series (the raw data source)
  - Series/Point IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Values use decimal.Decimal, so sums and averages are exact
  2. Append-only data: Points are never edited, only added
  3. Idempotency: Each point may carry a key that rejects duplicate writes

USAGE:
  p := heatmap.NewPoint("commits", at, decimal.NewFromInt(3))
  err := store.Append(ctx, p)

SEE ALSO:
  - builder.go: Layout and aggregation
  - store.go: Persistence interface
*/
package heatmap

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SeriesID string
type PointID string

// NewPointID returns a time-ordered UUIDv7 identifier.
func NewPointID() PointID {
	return PointID(uuid.Must(uuid.NewV7()).String())
}

// =============================================================================
// POINT - One observation in a series
// =============================================================================

type Point struct {
	ID             PointID
	Series         SeriesID
	At             time.Time
	Value          decimal.Decimal
	IdempotencyKey string
	CreatedAt      time.Time
}

// NewPoint builds a point with a fresh ID.
func NewPoint(series SeriesID, at time.Time, value decimal.Decimal) Point {
	return Point{
		ID:     NewPointID(),
		Series: series,
		At:     at,
		Value:  value,
	}
}

// MustParseDecimal parses s, returning zero for malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
