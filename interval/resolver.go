/*
resolver.go - Unit resolution table

PURPOSE:
  Maps a Unit to the calendar rules that define its intervals: how to
  truncate an instant to the start of its interval, and how to move between
  interval starts.

RULES:
  minute, hour:
    An interval starts where the wall clock reads :00 (or hh:mm:00), or
    where a zone transition changes the wall-clock hour (minute) without
    landing on one. Inside a zone period the starts are exactly d apart,
    so Add jumps in one step and only walks across transitions.
  day, week, month, year:
    Truncate rebuilds the wall-clock date at midnight in the zone.
    Add is date arithmetic on wall-clock fields (28-31 day months,
    365-366 day years, 23-25 hour days all fall out of it).
  week:
    Truncate first moves back to the locale's week-start weekday.

DST:
  When local midnight does not exist (a spring-forward gap at 00:00), the
  first instant of the day is the zone transition itself.

SEE ALSO:
  - engine.go: StartOf and Sequence built on these rules
  - locale.go: Week-start table
*/
package interval

import "time"

// Rule is the calendar arithmetic for one unit in one zone and locale.
type Rule struct {
	Unit Unit

	// Truncate returns the start of the interval containing t.
	Truncate func(t time.Time) time.Time

	// Add returns the start of the interval n units after the one
	// containing t. n may be negative.
	Add func(t time.Time, n int) time.Time
}

// Step advances an interval start by exactly one interval.
func (r Rule) Step(t time.Time) time.Time { return r.Add(t, 1) }

// Resolver resolves units to rules for a fixed zone and locale.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	loc    *time.Location
	locale Locale
}

// NewResolver creates a resolver for the given zone and locale.
// A nil location means UTC.
func NewResolver(loc *time.Location, locale Locale) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc, locale: locale}
}

// Resolve returns the rule for u. Units outside the enumerated set fail
// with ErrInvalidUnit; there is no fallback unit.
func (r *Resolver) Resolve(u Unit) (Rule, error) {
	switch u {
	case UnitMinute, UnitHour:
		d, _ := u.fixed()
		return Rule{
			Unit: u,
			Truncate: func(t time.Time) time.Time {
				return r.clockStart(t, u)
			},
			Add: func(t time.Time, n int) time.Time {
				return r.addClock(r.clockStart(t, u), u, d, n)
			},
		}, nil

	case UnitDay:
		return Rule{
			Unit: u,
			Truncate: func(t time.Time) time.Time {
				y, m, d := t.In(r.loc).Date()
				return r.midnight(y, m, d)
			},
			Add: func(t time.Time, n int) time.Time {
				y, m, d := t.In(r.loc).Date()
				return r.midnight(y, m, d+n)
			},
		}, nil

	case UnitWeek:
		weekStart := func(t time.Time) (int, time.Month, int) {
			w := t.In(r.loc)
			y, m, d := w.Date()
			return y, m, d - r.locale.weekOffset(w.Weekday())
		}
		return Rule{
			Unit: u,
			Truncate: func(t time.Time) time.Time {
				y, m, d := weekStart(t)
				return r.midnight(y, m, d)
			},
			Add: func(t time.Time, n int) time.Time {
				y, m, d := weekStart(t)
				return r.midnight(y, m, d+7*n)
			},
		}, nil

	case UnitMonth:
		return Rule{
			Unit: u,
			Truncate: func(t time.Time) time.Time {
				y, m, _ := t.In(r.loc).Date()
				return r.midnight(y, m, 1)
			},
			Add: func(t time.Time, n int) time.Time {
				y, m, _ := t.In(r.loc).Date()
				return r.midnight(y, m+time.Month(n), 1)
			},
		}, nil

	case UnitYear:
		return Rule{
			Unit: u,
			Truncate: func(t time.Time) time.Time {
				return r.midnight(t.In(r.loc).Year(), time.January, 1)
			},
			Add: func(t time.Time, n int) time.Time {
				return r.midnight(t.In(r.loc).Year()+n, time.January, 1)
			},
		}, nil
	}
	return Rule{}, &UnitError{Unit: u}
}

// clockDrop is the wall-clock time elapsed since the last :00 of u.
func clockDrop(w time.Time, u Unit) time.Duration {
	drop := time.Duration(w.Second())*time.Second + time.Duration(w.Nanosecond())
	if u == UnitHour {
		drop += time.Duration(w.Minute()) * time.Minute
	}
	return drop
}

// sameClock reports whether a and b show the same wall-clock date and hour
// (and minute, for UnitMinute).
func sameClock(a, b time.Time, u Unit) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by || am != bm || ad != bd || a.Hour() != b.Hour() {
		return false
	}
	return u == UnitHour || a.Minute() == b.Minute()
}

// isClockStart reports whether s begins a u interval: the wall clock reads
// :00 there, or a transition at s changed the wall-clock field.
func (r *Resolver) isClockStart(s time.Time, u Unit) bool {
	w := s.In(r.loc)
	if clockDrop(w, u) == 0 {
		return true
	}
	start, _ := w.ZoneBounds()
	return start.Equal(s) && !sameClock(s.Add(-time.Nanosecond).In(r.loc), w, u)
}

// clockStart returns the latest interval start at or before t. Within one
// zone period the wall clock is linear, so subtracting the finer fields is
// exact as long as the result stays in the period.
func (r *Resolver) clockStart(t time.Time, u Unit) time.Time {
	for {
		w := t.In(r.loc)
		c := w.Add(-clockDrop(w, u))
		start, _ := w.ZoneBounds()
		if start.IsZero() || !c.Before(start) {
			return c
		}
		prev := start.Add(-time.Nanosecond).In(r.loc)
		if !sameClock(prev, w, u) {
			// The transition skipped this field's :00.
			return start
		}
		t = prev
	}
}

// nextClockStart returns the first interval start strictly after t.
func (r *Resolver) nextClockStart(t time.Time, u Unit, d time.Duration) time.Time {
	for {
		w := t.In(r.loc)
		c := w.Add(d - clockDrop(w, u))
		_, end := w.ZoneBounds()
		if end.IsZero() || c.Before(end) {
			return c
		}
		if r.isClockStart(end, u) {
			return end
		}
		t = end
	}
}

// addClock moves n intervals from the start s. Inside one zone period the
// starts are d apart, so whole runs are jumped at once; transitions are
// crossed one interval at a time.
func (r *Resolver) addClock(s time.Time, u Unit, d time.Duration, n int) time.Time {
	for n > 0 {
		w := s.In(r.loc)
		_, end := w.ZoneBounds()
		if clockDrop(w, u) == 0 {
			if end.IsZero() {
				return s.Add(time.Duration(n) * d)
			}
			// Starts strictly before end that are reachable by jumping.
			k := int64(end.Sub(s)-1) / int64(d)
			if int64(n) <= k {
				return s.Add(time.Duration(n) * d)
			}
			s = s.Add(time.Duration(k) * d)
			n -= int(k)
		}
		s = r.nextClockStart(s, u, d)
		n--
	}
	for n < 0 {
		w := s.In(r.loc)
		start, _ := w.ZoneBounds()
		if clockDrop(w, u) == 0 {
			if start.IsZero() {
				return s.Add(time.Duration(n) * d)
			}
			k := int64(s.Sub(start)) / int64(d)
			if int64(-n) <= k {
				return s.Add(time.Duration(n) * d)
			}
			s = s.Add(-time.Duration(k) * d)
			n += int(k)
		}
		s = r.clockStart(s.Add(-time.Nanosecond), u)
		n++
	}
	return s
}

// midnight returns the first instant of the (normalized) date y-m-d in the
// resolver's zone.
func (r *Resolver) midnight(y int, m time.Month, d int) time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, r.loc)

	wy, wm, wd := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Date()
	if ty, tm, td := t.Date(); ty != wy || tm != wm || td != wd {
		// 00:00 falls in a gap and was resolved to the previous day;
		// the day starts at the transition that ends the current zone period.
		if _, end := t.ZoneBounds(); !end.IsZero() {
			return end
		}
	}
	return t
}
