package clock

import "time"

// Clock allows injecting time into services that cache or expire state.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a settable clock for tests.
type Fixed struct {
	Current time.Time
}

// NewFixed returns a clock pinned to the given instant.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	return f.Current
}

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
