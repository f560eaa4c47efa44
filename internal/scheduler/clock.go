package scheduler

import "time"

// Clock supplies the waits between cycles
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (realClock) Now() time.Time                         { return time.Now() }

// RealClock uses the time package
var RealClock Clock = realClock{}
