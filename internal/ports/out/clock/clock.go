// Package clock is the time source for registration timestamps and session idleness.
package clock

import "time"

// Clock returns the current instant in UTC.
type Clock interface {
	Now() time.Time
}
