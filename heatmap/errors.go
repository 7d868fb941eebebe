package heatmap

import (
	"errors"
	"fmt"

	"github.com/warp/calheatmap/interval"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a point with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidOptions is returned when calendar options cannot be laid out.
	ErrInvalidOptions = errors.New("invalid calendar options")

	// ErrTooManyCells is returned when a layout would exceed MaxCells.
	ErrTooManyCells = errors.New("calendar exceeds cell limit")

	// ErrCalendarNotFound is returned when a referenced calendar doesn't exist.
	ErrCalendarNotFound = errors.New("calendar not found")
)

// OptionsError provides details about rejected calendar options.
type OptionsError struct {
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid calendar options: %s %s", e.Field, e.Reason)
}

func (e *OptionsError) Unwrap() error {
	return ErrInvalidOptions
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return interval.IsClientError(err) ||
		errors.Is(err, ErrInvalidOptions) ||
		errors.Is(err, ErrTooManyCells) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCalendarNotFound)
}
