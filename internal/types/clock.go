package types

import "time"

// Clock supplies "now" to the engine. Services never call time.Now directly.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. carectl --today and the tests
// use it.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
