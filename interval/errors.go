/*
errors.go - Error types for the interval engine

PURPOSE:
  All error types in one place. Callers classify failures with errors.Is
  against the sentinels; the structured types carry the offending input.

ERROR CATEGORIES:
  1. Per-call errors - InvalidUnit, InvalidRange (StalledStep is internal)
  2. Configuration errors - InvalidLocale, InvalidTimezone (raised once, when
     an Engine is built, never per call)

PROPAGATION:
  Errors are returned to the immediate caller. The engine neither retries
  nor logs; reporting is the caller's job.

SEE ALSO:
  - engine.go: Raises range errors
  - resolver.go: Raises unit errors
  - locale.go, timezone.go: Raise configuration errors
*/
package interval

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidUnit is returned when a unit outside the enumerated set is requested.
	ErrInvalidUnit = errors.New("invalid unit")

	// ErrInvalidRange is returned for a non-positive count or a bound that
	// truncates to an interval before the reference interval.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidLocale is returned when a locale identifier cannot be resolved.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrInvalidTimezone is returned when a timezone identifier cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidInstant is returned when a textual instant cannot be parsed.
	ErrInvalidInstant = errors.New("invalid instant")

	// ErrStalledStep is returned when a rule's step fails to move past the
	// current interval start. It indicates a resolver defect, not bad input.
	ErrStalledStep = errors.New("interval step did not advance")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnitError reports an unsupported unit, either by name or by value.
type UnitError struct {
	Name string
	Unit Unit
}

func (e *UnitError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid unit %q: must be one of minute, hour, day, week, month, year", e.Name)
	}
	return fmt.Sprintf("invalid unit %d", int(e.Unit))
}

func (e *UnitError) Unwrap() error {
	return ErrInvalidUnit
}

// RangeError reports a rejected sequence range.
type RangeError struct {
	Unit   Unit
	Count  int
	Start  time.Time // Truncated reference instant
	Bound  time.Time // Truncated bound, zero for count ranges
	Reason string
}

func (e *RangeError) Error() string {
	if !e.Bound.IsZero() {
		return fmt.Sprintf("invalid range: %s (%s bound %s before start %s)",
			e.Reason, e.Unit, e.Bound.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	return fmt.Sprintf("invalid range: %s (count %d)", e.Reason, e.Count)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// ConfigError reports a locale or timezone identifier rejected at configuration time.
type ConfigError struct {
	Field string // "locale" or "timezone"
	Value string
	Err   error // ErrInvalidLocale or ErrInvalidTimezone
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %v", e.Err, e.Value, e.Cause)
	}
	return fmt.Sprintf("%s %q", e.Err, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidUnit) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidLocale) ||
		errors.Is(err, ErrInvalidTimezone) ||
		errors.Is(err, ErrInvalidInstant)
}

// IsConfigError returns true if the error was raised while building an Engine.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidLocale) || errors.Is(err, ErrInvalidTimezone)
}
