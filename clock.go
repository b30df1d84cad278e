package recur

import "time"

// Clock supplies the engine's notion of current time. Billing due
// checks and schedule advancement all flow through it, so tests can
// drive the schedule deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock reads the wall clock in UTC.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
