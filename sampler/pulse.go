package sampler

import (
	"sync"
	"time"
)

// DefaultPulse is how long a key stays highlighted after a trigger.
const DefaultPulse = 145 * time.Millisecond

// Pulser receives a notification for every accepted trigger.
type Pulser interface {
	Pulse(key string)
}

// PulseBoard tracks which keys are highlighted. A pulse clears itself once
// its duration has passed; nothing needs to be cancelled.
type PulseBoard struct {
	clock Clock
	dur   time.Duration

	lk    sync.Mutex
	until map[string]time.Time
}

func NewPulseBoard(clock Clock, dur time.Duration) *PulseBoard {
	if clock == nil {
		clock = RealClock()
	}
	if dur <= 0 {
		dur = DefaultPulse
	}
	return &PulseBoard{
		clock: clock,
		dur:   dur,
		until: make(map[string]time.Time),
	}
}

func (p *PulseBoard) Pulse(key string) {
	p.lk.Lock()
	defer p.lk.Unlock()
	p.until[key] = p.clock.Now().Add(p.dur)
}

func (p *PulseBoard) Active(key string) bool {
	return p.Level(key) > 0
}

// Level is the remaining fraction of the key's pulse, from 1 right after a
// trigger down to 0 once it has expired.
func (p *PulseBoard) Level(key string) float64 {
	p.lk.Lock()
	defer p.lk.Unlock()

	until, ok := p.until[key]
	if !ok {
		return 0
	}

	left := until.Sub(p.clock.Now())
	if left <= 0 {
		delete(p.until, key)
		return 0
	}
	return float64(left) / float64(p.dur)
}

func (p *PulseBoard) Duration() time.Duration {
	return p.dur
}
