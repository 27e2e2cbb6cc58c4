package sampler

import (
	"time"

	"github.com/gopxl/beep"

	"github.com/whyrusleeping/drumkit/internal/logger"
)

type Options struct {
	// SampleRate is the rate every resource streams at.
	SampleRate beep.SampleRate

	Volume float64
	Rate   float64
	Pulse  time.Duration
	// Settle is how long a replay stays Playing after its last event.
	// Negative means DefaultSettle; zero is allowed.
	Settle   time.Duration
	Analyser AnalyserConfig
	Clock    Clock
	Log      *logger.Logger
}

func DefaultOptions() Options {
	return Options{
		SampleRate: 44100,
		Volume:     1,
		Rate:       1,
		Pulse:      DefaultPulse,
		Settle:     DefaultSettle,
		Analyser:   DefaultAnalyserConfig(),
	}
}

// Kit wires the bank, graph, trigger engine, pulse board and record/replay
// session together.
type Kit struct {
	Bank     *Bank
	Graph    *Graph
	Controls *Controls
	Engine   *Engine
	Session  *Session
	Pulses   *PulseBoard

	rate beep.SampleRate
	log  *logger.Logger
}

func NewKit(entries []Entry, out Output, opts Options) *Kit {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultOptions().SampleRate
	}

	bank := NewBank(entries, log)
	controls := NewControls(opts.Volume, opts.Rate)
	graph := NewGraph(bank, out, controls.Volume(), opts.Analyser, log)
	pulses := NewPulseBoard(clock, opts.Pulse)
	engine := NewEngine(bank, graph, controls, pulses, log)
	session := NewSession(clock, engine.Trigger, opts.Settle, log)
	engine.OnTrigger(session.Capture)

	return &Kit{
		Bank:     bank,
		Graph:    graph,
		Controls: controls,
		Engine:   engine,
		Session:  session,
		Pulses:   pulses,
		rate:     opts.SampleRate,
		log:      log,
	}
}

// Trigger plays the sample bound to a raw key token.
func (k *Kit) Trigger(raw string) bool {
	return k.Engine.Trigger(raw)
}

// SetVolume moves the volume control: the master gain follows immediately
// and later triggers pick up the new level.
func (k *Kit) SetVolume(v float64) bool {
	if !k.Controls.SetVolume(v) {
		return false
	}
	k.Graph.SetVolume(k.Controls.Volume())
	return true
}

func (k *Kit) SetRate(v float64) bool {
	return k.Controls.SetRate(v)
}

// GetSetter returns the setter for a live level, "volume" or "rate", or nil.
func (k *Kit) GetSetter(name string) Setter {
	switch name {
	case "volume":
		return k.SetVolume
	case "rate":
		return k.SetRate
	default:
		return nil
	}
}

// Level reads a live level by the name GetSetter uses.
func (k *Kit) Level(name string) (float64, bool) {
	switch name {
	case "volume":
		return k.Controls.Volume(), true
	case "rate":
		return k.Controls.Rate(), true
	default:
		return 0, false
	}
}

// Nudge moves a live level by delta. Steps that would leave the level's
// range are ignored.
func (k *Kit) Nudge(name string, delta float64) bool {
	cur, ok := k.Level(name)
	if !ok {
		return false
	}
	return k.GetSetter(name)(cur + delta)
}
