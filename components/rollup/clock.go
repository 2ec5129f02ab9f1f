package rollup

import "time"

// DefaultLoadTimeout bounds each tile load.
const DefaultLoadTimeout = 15 * time.Second

// Clock schedules the per-tile load timeouts. Tests inject a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the cancellable handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock {
	return systemClock{}
}
