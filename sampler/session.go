package sampler

import (
	"sync"
	"time"

	"github.com/whyrusleeping/drumkit/internal/logger"
)

// State is the record/replay transport state.
type State string

const (
	Idle      State = "idle"
	Recording State = "recording"
	Playing   State = "playing"
)

// Command is one of the four transport controls.
type Command string

const (
	CmdRecord Command = "record"
	CmdStop   Command = "stop"
	CmdPlay   Command = "play"
	CmdClear  Command = "clear"
)

var Commands = []Command{CmdRecord, CmdStop, CmdPlay, CmdClear}

// DefaultSettle is how long Playing lasts past the last event's offset.
const DefaultSettle = 250 * time.Millisecond

// Event is a recorded trigger, offset from the start of its recording.
type Event struct {
	Key    string
	Offset time.Duration
}

func (e Event) OffsetMillis() float64 {
	return float64(e.Offset) / float64(time.Millisecond)
}

// Session records accepted triggers with their timing and replays them.
// Recording and Playing are mutually exclusive; every transition out of
// either returns to Idle. Calls that are not valid in the current state are
// ignored and report false.
type Session struct {
	clock   Clock
	trigger func(key string) bool
	settle  time.Duration
	log     *logger.Logger

	lk        sync.Mutex
	state     State
	events    []Event
	start     time.Time
	listeners []func(State)
}

func NewSession(clock Clock, trigger func(key string) bool, settle time.Duration, log *logger.Logger) *Session {
	if clock == nil {
		clock = RealClock()
	}
	if settle < 0 {
		settle = DefaultSettle
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Session{
		clock:   clock,
		trigger: trigger,
		settle:  settle,
		log:     log,
		state:   Idle,
	}
}

// OnStateChange registers fn to be called after every transition.
func (s *Session) OnStateChange(fn func(State)) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) State() State {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.state
}

// Events returns a copy of the recorded sequence in capture order.
func (s *Session) Events() []Event {
	s.lk.Lock()
	defer s.lk.Unlock()
	return append([]Event(nil), s.events...)
}

// StartRecording discards the previous sequence and starts capturing.
func (s *Session) StartRecording() bool {
	s.lk.Lock()
	if s.state != Idle {
		st := s.state
		s.lk.Unlock()
		s.log.Debugf("record ignored while %s", st)
		return false
	}
	s.events = nil
	s.start = s.clock.Now()
	s.state = Recording
	s.lk.Unlock()

	s.notify(Recording)
	return true
}

func (s *Session) StopRecording() bool {
	s.lk.Lock()
	if s.state != Recording {
		st := s.state
		s.lk.Unlock()
		s.log.Debugf("stop ignored while %s", st)
		return false
	}
	s.state = Idle
	n := len(s.events)
	s.lk.Unlock()

	s.log.Infof("recorded %d events", n)
	s.notify(Idle)
	return true
}

// Capture appends key to the sequence if a recording is active. It is meant
// to be registered with Engine.OnTrigger.
func (s *Session) Capture(key string) {
	s.lk.Lock()
	defer s.lk.Unlock()

	if s.state != Recording {
		return
	}

	offset := s.clock.Now().Sub(s.start)
	if offset < 0 {
		offset = 0
	}
	s.events = append(s.events, Event{Key: key, Offset: offset})
}

// Play schedules one trigger per recorded event at its original offset from
// now, and returns to Idle once the last one has had time to sound. A replay
// in flight cannot be stopped.
func (s *Session) Play() bool {
	s.lk.Lock()
	if s.state != Idle || len(s.events) == 0 {
		st, n := s.state, len(s.events)
		s.lk.Unlock()
		s.log.Debugf("play ignored while %s with %d events", st, n)
		return false
	}
	s.state = Playing
	events := append([]Event(nil), s.events...)
	s.lk.Unlock()

	s.notify(Playing)

	var last time.Duration
	for _, ev := range events {
		key := ev.Key
		s.clock.AfterFunc(ev.Offset, func() {
			s.trigger(key)
		})
		if ev.Offset > last {
			last = ev.Offset
		}
	}

	s.clock.AfterFunc(last+s.settle, s.finishPlaying)
	return true
}

func (s *Session) finishPlaying() {
	s.lk.Lock()
	if s.state != Playing {
		s.lk.Unlock()
		return
	}
	s.state = Idle
	s.lk.Unlock()

	s.notify(Idle)
}

// Clear empties the sequence.
func (s *Session) Clear() bool {
	s.lk.Lock()
	if s.state != Idle {
		st := s.state
		s.lk.Unlock()
		s.log.Debugf("clear ignored while %s", st)
		return false
	}
	s.events = nil
	s.lk.Unlock()

	s.notify(Idle)
	return true
}

// Enabled reports whether cmd would be accepted right now.
func (s *Session) Enabled(cmd Command) bool {
	s.lk.Lock()
	defer s.lk.Unlock()

	switch cmd {
	case CmdRecord:
		return s.state == Idle
	case CmdStop:
		return s.state == Recording
	case CmdPlay:
		return s.state == Idle && len(s.events) > 0
	case CmdClear:
		return s.state == Idle
	default:
		return false
	}
}

// Do runs a transport command and reports whether it was accepted.
func (s *Session) Do(cmd Command) bool {
	switch cmd {
	case CmdRecord:
		return s.StartRecording()
	case CmdStop:
		return s.StopRecording()
	case CmdPlay:
		return s.Play()
	case CmdClear:
		return s.Clear()
	default:
		return false
	}
}

func (s *Session) notify(st State) {
	s.lk.Lock()
	listeners := append(([]func(State))(nil), s.listeners...)
	s.lk.Unlock()

	for _, l := range listeners {
		l(st)
	}
}
