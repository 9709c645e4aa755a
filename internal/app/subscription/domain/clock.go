package domain

import "time"

// Clock supplies "now" to every rule that depends on the current date.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports FixedTime.
type FixedClock struct {
	FixedTime time.Time
}

func (f FixedClock) Now() time.Time {
	return f.FixedTime
}

// ZonedClock reports time in the delivery zone, which decides what "today" is.
type ZonedClock struct {
	Clock    Clock
	Location *time.Location
}

func (z ZonedClock) Now() time.Time {
	if z.Location == nil {
		return z.Clock.Now()
	}
	return z.Clock.Now().In(z.Location)
}
