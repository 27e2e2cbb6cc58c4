package sampler

import "github.com/benbjohnson/clock"

// Clock is the time source for record offsets, replay scheduling and pulse
// expiry.
type Clock = clock.Clock

// RealClock returns the process clock.
func RealClock() Clock {
	return clock.New()
}
