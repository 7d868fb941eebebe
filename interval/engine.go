/*
Package interval converts a reference date and a requested span into
calendar-aligned interval boundaries.

PURPOSE:
  Every grid cell of a calendar heatmap is one interval of a unit (minute,
  hour, day, week, month, year). This package computes where those
  intervals start, honoring the configured timezone (wall-clock truncation)
  and locale (first day of the week).

KEY OPERATIONS:
  StartOf(unit, instant)          Epoch ms of the interval start
  StartOfTime(unit, instant)      Same instant as a time.Time in the zone
  Sequence(unit, instant, range)  Ordered interval starts, by count or bound

INVARIANTS:
  1. StartOf(u, t) <= t
  2. StartOf(u, StartOf(u, t)) == StartOf(u, t)
  3. Sequence results are strictly increasing and contiguous
  4. Count(n) yields exactly n starts

CONFIGURATION:
  Locale and timezone are resolved once, in New. An Engine never changes
  afterwards and can be shared by concurrent callers.

USAGE:
  engine, err := interval.New(interval.Config{Locale: "fr", Timezone: "UTC"})
  starts, err := engine.Sequence(interval.UnitDay, interval.Millis(ms), interval.Count(7))

SEE ALSO:
  - resolver.go: Per-unit truncation and stepping rules
  - range.go: Count/Bound range variant
*/
package interval

import (
	"fmt"
	"time"
)

// maxPrealloc caps the capacity reserved up front for a counted sequence.
// Larger counts grow the slice as they go.
const maxPrealloc = 1024

// Config is the host configuration of an Engine.
type Config struct {
	Locale   string `json:"locale" yaml:"locale"`
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Engine computes interval starts for a fixed zone and locale.
type Engine struct {
	resolver *Resolver
	loc      *time.Location
	locale   Locale
	config   Config
}

// New validates the configuration and builds an Engine. Unknown locales or
// timezones fail here, not on later calls.
func New(cfg Config) (*Engine, error) {
	locale, err := ParseLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}
	loc, err := ParseTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return NewEngine(locale, loc), nil
}

// NewEngine builds an Engine from already-resolved values. A nil location
// means UTC.
func NewEngine(locale Locale, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		resolver: NewResolver(loc, locale),
		loc:      loc,
		locale:   locale,
		config:   Config{Locale: locale.String(), Timezone: loc.String()},
	}
}

// Location returns the engine's timezone.
func (e *Engine) Location() *time.Location { return e.loc }

// Locale returns the engine's locale.
func (e *Engine) Locale() Locale { return e.locale }

// Config returns the normalized configuration the engine was built with.
func (e *Engine) Config() Config { return e.config }

// Resolver exposes the engine's unit rules.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// =============================================================================
// OPERATIONS
// =============================================================================

// StartOf returns the epoch milliseconds of the start of the unit interval
// containing at.
func (e *Engine) StartOf(u Unit, at Instant) (int64, error) {
	t, err := e.StartOfTime(u, at)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// StartOfTime is StartOf returning a time.Time in the engine's zone, ready
// for further calendar arithmetic.
func (e *Engine) StartOfTime(u Unit, at Instant) (time.Time, error) {
	rule, err := e.resolver.Resolve(u)
	if err != nil {
		return time.Time{}, err
	}
	return rule.Truncate(at.in(e.loc)), nil
}

// Sequence returns the starts of consecutive u intervals beginning with the
// one containing at. With Count(n) it returns exactly n starts; with
// Bound(b) it runs through the interval containing b, inclusive.
func (e *Engine) Sequence(u Unit, at Instant, r Range) (Sequence, error) {
	rule, err := e.resolver.Resolve(u)
	if err != nil {
		return nil, err
	}
	start := rule.Truncate(at.in(e.loc))

	switch r.kind {
	case rangeCount:
		if r.count <= 0 {
			return nil, &RangeError{Unit: u, Count: r.count, Start: start, Reason: "count must be positive"}
		}
		seq := make(Sequence, 0, min(r.count, maxPrealloc))
		for cur := start; ; {
			seq = append(seq, cur)
			if len(seq) == r.count {
				return seq, nil
			}
			next, err := step(rule, cur)
			if err != nil {
				return nil, err
			}
			cur = next
		}

	case rangeBound:
		end := rule.Truncate(r.bound.in(e.loc))
		if end.Equal(start) {
			return Sequence{start}, nil
		}
		if end.Before(start) {
			return nil, &RangeError{Unit: u, Start: start, Bound: end, Reason: "bound precedes start"}
		}
		var seq Sequence
		for cur := start; !cur.After(end); {
			seq = append(seq, cur)
			next, err := step(rule, cur)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return seq, nil
	}
	return nil, &RangeError{Unit: u, Start: start, Reason: "range must be a count or a bound"}
}

// step advances cur by one interval and fails if the rule does not move
// forward.
func step(rule Rule, cur time.Time) (time.Time, error) {
	next := rule.Step(cur)
	if !next.After(cur) {
		return time.Time{}, fmt.Errorf("%w: %s from %s", ErrStalledStep, rule.Unit, cur.Format(time.RFC3339Nano))
	}
	return next, nil
}

// Shift returns the start of the interval n units away from the one
// containing at. Negative n moves backwards.
func (e *Engine) Shift(u Unit, at Instant, n int) (time.Time, error) {
	rule, err := e.resolver.Resolve(u)
	if err != nil {
		return time.Time{}, err
	}
	return rule.Add(at.in(e.loc), n), nil
}

// Interval returns the half-open interval of unit u containing at.
func (e *Engine) Interval(u Unit, at Instant) (Interval, error) {
	rule, err := e.resolver.Resolve(u)
	if err != nil {
		return Interval{}, err
	}
	start := rule.Truncate(at.in(e.loc))
	return Interval{Unit: u, Start: start, End: rule.Step(start)}, nil
}
