package pipeline

import "time"

// Clock abstracts the monotonic timer used for temps_traitement_ms, so tests
// can pin durations.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type realClock struct{}

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

// RealClock returns the wall clock. time.Since uses the monotonic reading, so
// measured durations are immune to wall-clock adjustments.
func RealClock() Clock { return realClock{} }
