package calculator

import "errors"

// DefaultMaxDenominations bounds the enumeration; the result grows as 2^N.
const DefaultMaxDenominations = 20

var (
	// ErrInvalidPlates is returned when an inventory is empty or holds a non-positive weight.
	ErrInvalidPlates = errors.New("plates must contain at least one positive, finite weight")
	// ErrTooManyPlates is returned when an inventory holds more distinct weights than allowed.
	ErrTooManyPlates = errors.New("too many distinct plate weights")
	// ErrInvalidDenominations is returned when a denomination list holds a non-positive weight.
	ErrInvalidDenominations = errors.New("denominations must be positive, finite weights")
	// ErrTooManyDenominations is returned when a denomination list is too long to enumerate.
	ErrTooManyDenominations = errors.New("too many denominations to enumerate")
	// ErrInvalidBars is returned when a bar has no type, a negative weight or
	// an invalid loading rule.
	ErrInvalidBars = errors.New("bars must have a type, a non-negative weight and valid loading rules")
)
