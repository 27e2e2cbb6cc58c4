package sampler

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type engineFixture struct {
	out      *fakeOutput
	res      map[string]*fakeResource
	controls *Controls
	pulses   *PulseBoard
	clock    *clock.Mock
	graph    *Graph
	engine   *Engine
}

func newEngineFixture(keys ...string) *engineFixture {
	f := &engineFixture{
		out:   &fakeOutput{},
		res:   make(map[string]*fakeResource),
		clock: clock.NewMock(),
	}

	var entries []Entry
	for _, k := range keys {
		r := &fakeResource{}
		f.res[k] = r
		entries = append(entries, Entry{Key: k, Resource: r})
	}

	bank := NewBank(entries, quietLog())
	f.controls = NewControls(1, 1)
	f.pulses = NewPulseBoard(f.clock, DefaultPulse)
	f.graph = NewGraph(bank, f.out, 1, DefaultAnalyserConfig(), quietLog())
	f.engine = NewEngine(bank, f.graph, f.controls, f.pulses, quietLog())
	return f
}

func TestTriggerBoundKey(t *testing.T) {
	f := newEngineFixture("A", "S")

	if !f.engine.Trigger("a") {
		t.Fatal("bound key not accepted")
	}
	if n := len(f.res["A"].Restarts()); n != 1 {
		t.Fatalf("restarts = %d", n)
	}
	if n := len(f.res["S"].Restarts()); n != 0 {
		t.Fatalf("unrelated sample restarted %d times", n)
	}
	if !f.pulses.Active("A") {
		t.Fatal("key not highlighted")
	}
	if !f.graph.Created() {
		t.Fatal("first trigger should build the graph")
	}
}

func TestTriggerUnboundKey(t *testing.T) {
	f := newEngineFixture("A")
	var heard []string
	f.engine.OnTrigger(func(k string) { heard = append(heard, k) })

	for _, raw := range []string{"Z", "", "KeyQ", "\x01"} {
		if f.engine.Trigger(raw) {
			t.Errorf("%q accepted", raw)
		}
	}
	if n := len(f.res["A"].Restarts()); n != 0 {
		t.Fatalf("restarts = %d", n)
	}
	if len(heard) != 0 {
		t.Fatalf("listeners called for unbound keys: %v", heard)
	}
	if f.pulses.Active("Z") {
		t.Fatal("unbound key highlighted")
	}
	if st := f.engine.Stats(); st.Missed != 4 || st.Fired != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestTriggerRapidRepeatRestarts(t *testing.T) {
	f := newEngineFixture("A")

	f.engine.Trigger("A")
	f.engine.Trigger("A")

	if n := len(f.res["A"].Restarts()); n != 2 {
		t.Fatalf("restarts = %d, want one per trigger", n)
	}
	if f.graph.Constructions() != 1 {
		t.Fatal("graph rebuilt")
	}
}

func TestTriggerReadsLiveLevels(t *testing.T) {
	f := newEngineFixture("A")

	f.controls.SetVolume(0.3)
	f.engine.Trigger("A")
	f.controls.SetRate(1.5)
	f.engine.Trigger("A")

	got := f.res["A"].Restarts()
	if got[0] != (restart{rate: 1, gain: 0.3}) {
		t.Fatalf("first restart = %+v", got[0])
	}
	if got[1] != (restart{rate: 1.5, gain: 0.3}) {
		t.Fatalf("second restart = %+v", got[1])
	}
}

func TestTriggerPlaybackBlocked(t *testing.T) {
	f := newEngineFixture("A")
	f.out.playErr = errors.New("no device")
	var heard []string
	f.engine.OnTrigger(func(k string) { heard = append(heard, k) })

	fired, err := f.engine.Fire("a")
	if !fired || !Blocked(err) {
		t.Fatalf("Fire = %v, %v", fired, err)
	}
	if !f.engine.Trigger("A") {
		t.Fatal("blocked trigger should still count as accepted")
	}
	if len(heard) != 2 || heard[0] != "A" {
		t.Fatalf("listeners = %v", heard)
	}
	if st := f.engine.Stats(); st.Fired != 2 || st.Blocked != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestTriggerResourceError(t *testing.T) {
	f := newEngineFixture("A")
	f.res["A"].err = errors.New("decoder gone")

	fired, err := f.engine.Fire("A")
	if !fired || err == nil || Blocked(err) {
		t.Fatalf("Fire = %v, %v", fired, err)
	}
}

func TestPulseExpires(t *testing.T) {
	f := newEngineFixture("A")
	f.engine.Trigger("A")

	f.clock.Add(100 * time.Millisecond)
	if lvl := f.pulses.Level("A"); !near(lvl, 45.0/145, 1e-9) {
		t.Fatalf("level = %v", lvl)
	}
	f.clock.Add(45 * time.Millisecond)
	if f.pulses.Active("A") {
		t.Fatal("pulse outlived its duration")
	}
}
