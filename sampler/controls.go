package sampler

import (
	"math"
	"sync"
)

// Playback rate limits, as a multiple of the recorded speed.
const (
	MinRate = 1.0 / 16
	MaxRate = 16.0
)

// Levels supplies the live trigger parameters. They are read on every
// trigger, never cached.
type Levels interface {
	Volume() float64
	Rate() float64
}

// Setter adjusts one live parameter, as bound to a key, slider or console
// command. It reports whether the value was taken.
type Setter func(float64) bool

// Controls holds the volume (0..1) and playback rate multiplier
// (MinRate..MaxRate).
type Controls struct {
	lk     sync.RWMutex
	volume float64
	rate   float64
}

func NewControls(volume, rate float64) *Controls {
	c := &Controls{volume: 1, rate: 1}
	c.SetVolume(volume)
	c.SetRate(rate)
	return c
}

func (c *Controls) Volume() float64 {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return c.volume
}

func (c *Controls) Rate() float64 {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return c.rate
}

// SetVolume clamps v into [0, 1]. NaN and infinities are ignored.
func (c *Controls) SetVolume(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	c.lk.Lock()
	defer c.lk.Unlock()
	c.volume = clampUnit(v)
	return true
}

// SetRate ignores values outside [MinRate, MaxRate], NaN included.
func (c *Controls) SetRate(v float64) bool {
	if !validRate(v) {
		return false
	}
	c.lk.Lock()
	defer c.lk.Unlock()
	c.rate = v
	return true
}

func validRate(v float64) bool {
	return v >= MinRate && v <= MaxRate
}
