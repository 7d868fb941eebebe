package interval

import (
	"strings"
	"time"
	_ "time/tzdata" // identifiers resolve on hosts without a zoneinfo database
)

// ParseTimezone resolves an IANA identifier (e.g. "Europe/Paris").
// An empty identifier selects the host's local zone; "UTC" selects UTC.
func ParseTimezone(tz string) (*time.Location, error) {
	name := strings.TrimSpace(tz)
	switch name {
	case "":
		return time.Local, nil
	case "UTC", "Etc/UTC":
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ConfigError{Field: "timezone", Value: tz, Err: ErrInvalidTimezone, Cause: err}
	}
	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}
