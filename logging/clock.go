package logging

import "time"

// SystemClock implements Clock using the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
