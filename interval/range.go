package interval

// =============================================================================
// RANGE - Either a count of intervals or an inclusive bound
// =============================================================================

type rangeKind uint8

const (
	rangeUnset rangeKind = iota
	rangeCount
	rangeBound
)

// Range is the span argument of Engine.Sequence. Build it with Count or
// Bound; the zero value is rejected.
type Range struct {
	kind  rangeKind
	count int
	bound Instant
}

// Count asks for exactly n intervals.
func Count(n int) Range { return Range{kind: rangeCount, count: n} }

// Bound asks for every interval up to and including the one containing at.
func Bound(at Instant) Range { return Range{kind: rangeBound, bound: at} }

// IsCount reports whether r was built with Count, returning the count.
func (r Range) IsCount() (int, bool) { return r.count, r.kind == rangeCount }

// IsBound reports whether r was built with Bound, returning the bound.
func (r Range) IsBound() (Instant, bool) { return r.bound, r.kind == rangeBound }
