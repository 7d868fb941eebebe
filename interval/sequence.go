package interval

import (
	"strings"
	"time"
)

// =============================================================================
// SEQUENCE - Ordered interval starts
// =============================================================================

// Sequence is a strictly increasing list of interval starts.
type Sequence []time.Time

// Millis returns the starts as epoch milliseconds.
func (s Sequence) Millis() []int64 {
	out := make([]int64, len(s))
	for i, t := range s {
		out[i] = t.UnixMilli()
	}
	return out
}

// Times returns the starts as a plain slice.
func (s Sequence) Times() []time.Time { return []time.Time(s) }

// First returns the first start, or the zero time for an empty sequence.
func (s Sequence) First() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0]
}

// Last returns the last start, or the zero time for an empty sequence.
func (s Sequence) Last() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1]
}

// =============================================================================
// INTERVAL - Half-open span [Start, End)
// =============================================================================

// Interval is the half-open span of one unit.
type Interval struct {
	Unit  Unit
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration is the absolute length of the interval, which varies for
// calendar units.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

func (iv Interval) String() string {
	var b strings.Builder
	b.WriteString(iv.Unit.String())
	b.WriteString(" [")
	b.WriteString(iv.Start.Format(time.RFC3339))
	b.WriteString(", ")
	b.WriteString(iv.End.Format(time.RFC3339))
	b.WriteString(")")
	return b.String()
}
