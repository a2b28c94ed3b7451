// Package clock abstracts wall-clock time so workflows can be tested.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// Fixed always reports the same instant.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant in UTC.
func (f Fixed) Now() time.Time {
	return f.At.UTC()
}
