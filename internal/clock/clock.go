// Package clock abstracts time so services and tests can agree on
// "now".  Production code uses the system clock; tests pin a fixed
// instant to make deadlines deterministic.
package clock

import "time"

// Clock supplies the current UTC time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

type fixedClock struct{ now time.Time }

// NewFixed returns a clock frozen at the given instant.
func NewFixed(t time.Time) Clock { return fixedClock{now: t.UTC()} }

func (f fixedClock) Now() time.Time { return f.now }
