package sampler

import (
	"sync"

	"github.com/whyrusleeping/drumkit/internal/logger"
)

// Stats counts trigger outcomes.
type Stats struct {
	Fired   int // accepted triggers
	Missed  int // keys with no binding
	Blocked int // accepted, but the output refused to play
}

// Engine turns key presses into sample playback.
type Engine struct {
	bank   *Bank
	graph  *Graph
	levels Levels
	pulser Pulser
	log    *logger.Logger

	lk        sync.Mutex
	listeners []func(key string)
	stats     Stats
}

func NewEngine(bank *Bank, graph *Graph, levels Levels, pulser Pulser, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		bank:   bank,
		graph:  graph,
		levels: levels,
		pulser: pulser,
		log:    log,
	}
}

// OnTrigger registers fn to be called with the canonical key of every
// accepted trigger.
func (e *Engine) OnTrigger(fn func(key string)) {
	e.lk.Lock()
	defer e.lk.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Trigger plays the sample bound to key from the start. It reports whether
// the key was bound; playback failures caused by the output are absorbed.
func (e *Engine) Trigger(key string) bool {
	fired, _ := e.Fire(key)
	return fired
}

// Fire is Trigger with the absorbed playback error exposed. A non-nil error
// with fired == true means the trigger was accepted but the output did not
// play it.
func (e *Engine) Fire(raw string) (bool, error) {
	key := Normalize(raw)

	err := e.graph.Ensure()

	bd, ok := e.bank.Lookup(key)
	if !ok {
		e.lk.Lock()
		e.stats.Missed++
		e.lk.Unlock()
		e.log.Debugf("no sample bound to %q", raw)
		return false, nil
	}

	if rerr := bd.Resource.Restart(e.levels.Rate(), e.levels.Volume()); rerr != nil && err == nil {
		err = rerr
	}

	if e.pulser != nil {
		e.pulser.Pulse(key)
	}

	e.lk.Lock()
	e.stats.Fired++
	if err != nil {
		e.stats.Blocked++
	}
	listeners := append(([]func(string))(nil), e.listeners...)
	e.lk.Unlock()

	if err != nil {
		if Blocked(err) {
			e.log.Debugf("trigger %q accepted but not played: %v", key, err)
		} else {
			e.log.Warnf("trigger %q: %v", key, err)
		}
	}

	for _, l := range listeners {
		l(key)
	}

	return true, err
}

func (e *Engine) Stats() Stats {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.stats
}
