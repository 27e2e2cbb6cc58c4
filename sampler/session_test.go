package sampler

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type sessionFixture struct {
	clock   *clock.Mock
	played  *keyRecorder
	session *Session
}

func newSessionFixture(settle time.Duration) *sessionFixture {
	f := &sessionFixture{clock: clock.NewMock(), played: &keyRecorder{}}
	f.session = NewSession(f.clock, f.played.trigger, settle, quietLog())
	return f
}

func (f *sessionFixture) waitPlayed(t *testing.T, want ...string) {
	t.Helper()
	if !eventually(t, func() bool { return reflect.DeepEqual(f.played.Keys(), want) }) {
		t.Fatalf("played = %v, want %v", f.played.Keys(), want)
	}
}

func (f *sessionFixture) waitState(t *testing.T, want State) {
	t.Helper()
	if !eventually(t, func() bool { return f.session.State() == want }) {
		t.Fatalf("state = %s, want %s", f.session.State(), want)
	}
}

func TestSessionRecordAndReplay(t *testing.T) {
	f := newSessionFixture(DefaultSettle)
	s := f.session

	var lk sync.Mutex
	var states []State
	s.OnStateChange(func(st State) {
		lk.Lock()
		states = append(states, st)
		lk.Unlock()
	})

	if !s.StartRecording() {
		t.Fatal("record rejected from idle")
	}
	s.Capture("A")
	f.clock.Add(500 * time.Millisecond)
	s.Capture("B")
	if !s.StopRecording() {
		t.Fatal("stop rejected while recording")
	}

	events := s.Events()
	if len(events) != 2 || events[0] != (Event{"A", 0}) || events[1] != (Event{"B", 500 * time.Millisecond}) {
		t.Fatalf("events = %+v", events)
	}

	if !s.Play() {
		t.Fatal("play rejected")
	}
	if s.State() != Playing {
		t.Fatalf("state = %s", s.State())
	}

	f.clock.Add(0)
	f.waitPlayed(t, "A")

	f.clock.Add(499 * time.Millisecond)
	f.waitPlayed(t, "A")
	f.clock.Add(time.Millisecond)
	f.waitPlayed(t, "A", "B")

	f.clock.Add(249 * time.Millisecond)
	if s.State() != Playing {
		t.Fatal("left Playing before the settle margin")
	}
	f.clock.Add(time.Millisecond)
	f.waitState(t, Idle)

	lk.Lock()
	defer lk.Unlock()
	if want := []State{Recording, Idle, Playing, Idle}; !reflect.DeepEqual(states, want) {
		t.Fatalf("transitions = %v", states)
	}
}

func TestSessionCaptureOnlyWhileRecording(t *testing.T) {
	f := newSessionFixture(DefaultSettle)
	s := f.session

	s.Capture("A")
	if len(s.Events()) != 0 {
		t.Fatal("captured while idle")
	}

	s.StartRecording()
	s.Capture("A")
	s.StopRecording()
	s.Capture("B")

	s.Play()
	s.Capture("C")
	f.clock.Add(time.Second)
	f.waitState(t, Idle)

	if ev := s.Events(); len(ev) != 1 || ev[0].Key != "A" {
		t.Fatalf("events = %+v", ev)
	}
}

func TestSessionRecordDiscardsPrevious(t *testing.T) {
	f := newSessionFixture(DefaultSettle)
	s := f.session

	s.StartRecording()
	s.Capture("A")
	s.Capture("B")
	s.StopRecording()

	f.clock.Add(time.Minute)
	s.StartRecording()
	f.clock.Add(20 * time.Millisecond)
	s.Capture("C")
	s.StopRecording()

	ev := s.Events()
	if len(ev) != 1 || ev[0] != (Event{"C", 20 * time.Millisecond}) {
		t.Fatalf("events = %+v", ev)
	}
	if ev[0].OffsetMillis() != 20 {
		t.Fatalf("offset ms = %v", ev[0].OffsetMillis())
	}
}

func TestSessionPlayEmpty(t *testing.T) {
	f := newSessionFixture(DefaultSettle)
	s := f.session

	if s.Play() {
		t.Fatal("play accepted with no events")
	}
	f.clock.Add(time.Second)
	if s.State() != Idle || len(f.played.Keys()) != 0 {
		t.Fatalf("state = %s, played = %v", s.State(), f.played.Keys())
	}

	s.StartRecording()
	s.StopRecording()
	if s.Play() {
		t.Fatal("play accepted after an empty recording")
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	f := newSessionFixture(DefaultSettle)
	s := f.session

	if s.StopRecording() {
		t.Fatal("stop accepted while idle")
	}

	s.StartRecording()
	s.Capture("A")
	if s.StartRecording() || s.Play() || s.Clear() {
		t.Fatal("transport accepted a command while recording")
	}
	s.StopRecording()

	s.Play()
	if s.StartRecording() || s.StopRecording() || s.Play() || s.Clear() {
		t.Fatal("transport accepted a command while playing")
	}
	if len(s.Events()) != 1 {
		t.Fatal("sequence changed during replay")
	}

	f.clock.Add(time.Second)
	f.waitState(t, Idle)
	if !s.Clear() || len(s.Events()) != 0 {
		t.Fatal("clear failed once idle")
	}
}

func TestSessionEnabled(t *testing.T) {
	f := newSessionFixture(DefaultSettle)
	s := f.session

	check := func(want map[Command]bool) {
		t.Helper()
		for _, c := range Commands {
			if s.Enabled(c) != want[c] {
				t.Errorf("%s while %s: enabled = %v", c, s.State(), s.Enabled(c))
			}
		}
	}

	check(map[Command]bool{CmdRecord: true, CmdClear: true})

	s.Do(CmdRecord)
	check(map[Command]bool{CmdStop: true})
	s.Capture("A")

	s.Do(CmdStop)
	check(map[Command]bool{CmdRecord: true, CmdPlay: true, CmdClear: true})

	s.Do(CmdPlay)
	check(map[Command]bool{})

	if s.Enabled(Command("rewind")) || s.Do(Command("rewind")) {
		t.Fatal("unknown command accepted")
	}
}

func TestSessionSettle(t *testing.T) {
	for _, tt := range []struct {
		name   string
		settle time.Duration
		want   time.Duration
	}{
		{"default", -1, DefaultSettle},
		{"zero", 0, 0},
		{"custom", 40 * time.Millisecond, 40 * time.Millisecond},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(tt.settle)
			s := f.session
			s.StartRecording()
			f.clock.Add(100 * time.Millisecond)
			s.Capture("A")
			s.StopRecording()
			s.Play()

			if tt.want > 0 {
				f.clock.Add(100*time.Millisecond + tt.want - time.Millisecond)
				f.waitPlayed(t, "A")
				if s.State() != Playing {
					t.Fatal("replay ended before its settle margin")
				}
				f.clock.Add(time.Millisecond)
			} else {
				f.clock.Add(100 * time.Millisecond)
				f.waitPlayed(t, "A")
			}
			f.waitState(t, Idle)
		})
	}
}
