package interval

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// INSTANT - A point in time, from epoch milliseconds or a calendar datetime
// =============================================================================

// Instant is a point in time. Millis and At build the same value from the
// two accepted representations.
type Instant struct {
	t time.Time
}

// Millis builds an Instant from epoch milliseconds.
func Millis(ms int64) Instant { return Instant{t: time.UnixMilli(ms)} }

// At builds an Instant from a timezone-aware time.
func At(t time.Time) Instant { return Instant{t: t} }

// Time returns the instant as a time.Time in its original location.
func (i Instant) Time() time.Time { return i.t }

// Millis returns the instant as epoch milliseconds.
func (i Instant) Millis() int64 { return i.t.UnixMilli() }

func (i Instant) IsZero() bool { return i.t.IsZero() }

// in returns the instant as wall-clock time in loc.
func (i Instant) in(loc *time.Location) time.Time { return i.t.In(loc) }

func (i Instant) String() string { return i.t.Format(time.RFC3339Nano) }

// dateLayout is the calendar-date form accepted by ParseInstant.
const dateLayout = "2006-01-02"

// ParseInstant reads an instant written as RFC 3339, as a bare date
// (midnight in loc), or as integer epoch milliseconds.
func ParseInstant(s string, loc *time.Location) (Instant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, fmt.Errorf("%w: empty", ErrInvalidInstant)
	}
	if loc == nil {
		loc = time.UTC
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Millis(ms), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return At(t), nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return At(t), nil
	}
	return Instant{}, fmt.Errorf("%w %q: want RFC 3339, YYYY-MM-DD or epoch milliseconds", ErrInvalidInstant, s)
}
