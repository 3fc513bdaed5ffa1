package clock

import "time"

// Clock provides the current time to services; tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}
