// Package store provides in-memory heatmap.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/calheatmap/heatmap"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	points      map[heatmap.SeriesID][]heatmap.Point
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		points:      make(map[heatmap.SeriesID][]heatmap.Point),
		idempotency: make(map[string]bool),
	}
}

// Append adds a single point. Append-only.
func (m *Memory) Append(_ context.Context, p heatmap.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.IdempotencyKey != "" && m.idempotency[p.IdempotencyKey] {
		return heatmap.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(p)
	return nil
}

// AppendBatch adds multiple points atomically.
func (m *Memory) AppendBatch(_ context.Context, ps []heatmap.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first, including duplicates inside the batch
	seen := make(map[string]bool)
	for _, p := range ps {
		if p.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[p.IdempotencyKey] || seen[p.IdempotencyKey] {
			return heatmap.ErrDuplicateIdempotencyKey
		}
		seen[p.IdempotencyKey] = true
	}

	for _, p := range ps {
		m.appendLocked(p)
	}
	return nil
}

func (m *Memory) appendLocked(p heatmap.Point) {
	if p.ID == "" {
		p.ID = heatmap.NewPointID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	ps := m.points[p.Series]

	// Binary search for insertion point keeps the series ordered by At
	i := sort.Search(len(ps), func(i int) bool {
		return ps[i].At.After(p.At)
	})

	ps = append(ps, heatmap.Point{})
	copy(ps[i+1:], ps[i:])
	ps[i] = p
	m.points[p.Series] = ps

	if p.IdempotencyKey != "" {
		m.idempotency[p.IdempotencyKey] = true
	}
}

// LoadRange returns the series' points in [from, to).
func (m *Memory) LoadRange(_ context.Context, series heatmap.SeriesID, from, to time.Time) ([]heatmap.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ps := m.points[series]
	lo := sort.Search(len(ps), func(i int) bool { return !ps[i].At.Before(from) })
	hi := sort.Search(len(ps), func(i int) bool { return !ps[i].At.Before(to) })
	if lo >= hi {
		return nil, nil
	}
	result := make([]heatmap.Point, hi-lo)
	copy(result, ps[lo:hi])
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// Series lists the series with at least one point.
func (m *Memory) Series(_ context.Context) ([]heatmap.SeriesID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]heatmap.SeriesID, 0, len(m.points))
	for s := range m.points {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Reset drops all points.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = make(map[heatmap.SeriesID][]heatmap.Point)
	m.idempotency = make(map[string]bool)
	return nil
}
