package interval

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// UNIT - Calendar granularity
// =============================================================================

// Unit is a calendar granularity. Values are ordered from finest to coarsest,
// so comparisons between units follow granularity.
type Unit int

const (
	UnitMinute Unit = iota
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

var unitNames = [...]string{
	UnitMinute: "minute",
	UnitHour:   "hour",
	UnitDay:    "day",
	UnitWeek:   "week",
	UnitMonth:  "month",
	UnitYear:   "year",
}

// Units returns every supported unit, finest first.
func Units() []Unit {
	return []Unit{UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear}
}

// ParseUnit maps a unit name ("day", "Week", ...) to a Unit.
func ParseUnit(name string) (Unit, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for u, s := range unitNames {
		if s == n {
			return Unit(u), nil
		}
	}
	return 0, &UnitError{Name: name}
}

// Valid reports whether u is one of the enumerated units.
func (u Unit) Valid() bool { return u >= UnitMinute && u <= UnitYear }

// Finer reports whether u is a strictly smaller granularity than other.
func (u Unit) Finer(other Unit) bool { return u < other }

func (u Unit) String() string {
	if !u.Valid() {
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
	return unitNames[u]
}

// MarshalText lets units travel as their names in JSON and YAML.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, &UnitError{Unit: u}
	}
	return []byte(unitNames[u]), nil
}

func (u *Unit) UnmarshalText(b []byte) error {
	parsed, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// fixed is the absolute length of units that never vary with the calendar.
func (u Unit) fixed() (time.Duration, bool) {
	switch u {
	case UnitMinute:
		return time.Minute, true
	case UnitHour:
		return time.Hour, true
	}
	return 0, false
}
