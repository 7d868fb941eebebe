/*
store.go - Persistence interface for heatmap data points

PURPOSE:
  Defines the interface between the heatmap builder and the database.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  - Append(): Single point write
  - AppendBatch(): Atomic multi-point write
  - NO Update() or Delete() of individual points

IDEMPOTENCY:
  A point may carry an idempotency key. If the key already exists, the
  write is rejected with ErrDuplicateIdempotencyKey, so client retries do
  not double-count a cell.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - heatmap/store/memory.go: In-memory for testing

SEE ALSO:
  - builder.go: BuildFromStore reads through this interface
*/
package heatmap

import (
	"context"
	"time"
)

// Store handles persistence of data points.
type Store interface {
	// Append persists a point. Returns ErrDuplicateIdempotencyKey if the key exists.
	Append(ctx context.Context, p Point) error

	// AppendBatch persists multiple points atomically.
	// Either all succeed or none do.
	AppendBatch(ctx context.Context, ps []Point) error

	// LoadRange returns the series' points in [from, to), ordered by At.
	LoadRange(ctx context.Context, series SeriesID, from, to time.Time) ([]Point, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
