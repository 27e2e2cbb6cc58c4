package sampler

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/drumkit/internal/logger"
)

// Output is the audio sink the graph plays into.
type Output interface {
	// Play hands the graph's output bus to the device. Called once on
	// success.
	Play(s beep.Streamer) error
	Suspend() error
	Resume() error
}

type GraphState int

const (
	GraphUninitialized GraphState = iota
	GraphReady
	GraphSuspended
)

func (s GraphState) String() string {
	switch s {
	case GraphUninitialized:
		return "uninitialized"
	case GraphReady:
		return "ready"
	case GraphSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Graph is the process-wide processing graph:
//
//	tapped samples -> analyser -> master gain -+-> output
//	untapped samples --------------------------+
//
// It is built once, on the first Ensure, and never rebuilt.
type Graph struct {
	bank *Bank
	out  Output
	acfg AnalyserConfig
	log  *logger.Logger

	lk            sync.Mutex
	state         GraphState
	playing       bool
	volume        float64
	bus           *lockedMixer
	analyser      *Analyser
	gain          *masterGain
	failures      []error
	constructions int
	onCreate      []func()

	// routing, shared with Bank.AttachTap
	rlk      sync.Mutex
	analysed *lockedMixer
	direct   *lockedMixer
	routes   map[Resource]bool
}

func NewGraph(bank *Bank, out Output, volume float64, acfg AnalyserConfig, log *logger.Logger) *Graph {
	if log == nil {
		log = logger.Discard()
	}
	return &Graph{
		bank:   bank,
		out:    out,
		acfg:   acfg,
		log:    log,
		volume: clampUnit(volume),
		routes: make(map[Resource]bool),
	}
}

// Ensure builds the graph on first use and makes sure the output is
// running. Repeated calls never rebuild; they resume a suspended output.
// Tap failures are collected, not returned. The only error is an output
// that refuses to start, which matches ErrPlaybackBlocked.
func (g *Graph) Ensure() error {
	g.lk.Lock()

	var hooks []func()
	if g.state == GraphUninitialized {
		g.build()
		hooks = g.onCreate
		g.onCreate = nil
	}
	err := g.start()

	g.lk.Unlock()

	for _, h := range hooks {
		h()
	}
	return err
}

func (g *Graph) build() {
	analysed := &lockedMixer{}
	direct := &lockedMixer{}

	g.rlk.Lock()
	g.analysed = analysed
	g.direct = direct
	g.rlk.Unlock()

	g.analyser = NewAnalyser(analysed, g.acfg)
	g.gain = newMasterGain(g.analyser, g.volume)

	g.bus = &lockedMixer{}
	g.bus.Add(g.gain, direct)

	for _, bd := range g.bank.Bindings() {
		if _, err := g.bank.AttachTap(bd, g); err != nil {
			g.failures = append(g.failures, errors.Wrapf(err, "key %q", bd.Key))
			g.route(bd.Resource, direct)
		}
	}

	g.constructions++
	g.state = GraphSuspended
	g.log.Debugf("audio graph built: %d keys, %d without analysis", g.bank.Len(), len(g.failures))
}

func (g *Graph) start() error {
	if !g.playing {
		if err := g.out.Play(g.bus); err != nil {
			return errors.Wrapf(ErrPlaybackBlocked, "starting output: %v", err)
		}
		g.playing = true
		g.state = GraphReady
		return nil
	}

	if g.state == GraphSuspended {
		if err := g.out.Resume(); err != nil {
			return errors.Wrapf(ErrPlaybackBlocked, "resuming output: %v", err)
		}
		g.state = GraphReady
	}
	return nil
}

// tap routes res into the analysis path. Called by the bank with the
// binding locked.
func (g *Graph) tap(res Resource) error {
	g.rlk.Lock()
	built := g.analysed != nil
	g.rlk.Unlock()
	if !built {
		return errors.New("graph not built")
	}

	fresh, err := res.Claim(g)
	if err != nil {
		return err
	}
	if fresh {
		g.route(res, g.analysed)
	}
	return nil
}

func (g *Graph) route(res Resource, m *lockedMixer) {
	g.rlk.Lock()
	defer g.rlk.Unlock()

	if g.routes[res] {
		return
	}
	g.routes[res] = true
	m.Add(res)
}

// Routed reports whether res is wired to the output, analysed or not.
func (g *Graph) Routed(res Resource) bool {
	g.rlk.Lock()
	defer g.rlk.Unlock()
	return g.routes[res]
}

// Suspend pauses the output. The next Ensure resumes it.
func (g *Graph) Suspend() error {
	g.lk.Lock()
	defer g.lk.Unlock()

	if g.state != GraphReady {
		return nil
	}
	if err := g.out.Suspend(); err != nil {
		return errors.Wrap(err, "suspending output")
	}
	g.state = GraphSuspended
	return nil
}

// SetVolume sets the master gain. Before the graph exists the value is kept
// and applied when it is built.
func (g *Graph) SetVolume(v float64) {
	v = clampUnit(v)

	g.lk.Lock()
	defer g.lk.Unlock()

	g.volume = v
	if g.gain != nil {
		g.gain.Set(v)
	}
}

func (g *Graph) Volume() float64 {
	g.lk.Lock()
	defer g.lk.Unlock()
	return g.volume
}

func (g *Graph) State() GraphState {
	g.lk.Lock()
	defer g.lk.Unlock()
	return g.state
}

func (g *Graph) Created() bool {
	return g.State() != GraphUninitialized
}

// Analyser returns nil until the graph is built.
func (g *Graph) Analyser() *Analyser {
	g.lk.Lock()
	defer g.lk.Unlock()
	return g.analyser
}

// Constructions counts graph builds; it never exceeds one.
func (g *Graph) Constructions() int {
	g.lk.Lock()
	defer g.lk.Unlock()
	return g.constructions
}

func (g *Graph) TapFailures() []error {
	g.lk.Lock()
	defer g.lk.Unlock()
	return append([]error(nil), g.failures...)
}

// OnCreate registers fn to run once the graph has been built. If it already
// has been, fn runs immediately.
func (g *Graph) OnCreate(fn func()) {
	g.lk.Lock()
	if g.state == GraphUninitialized {
		g.onCreate = append(g.onCreate, fn)
		g.lk.Unlock()
		return
	}
	g.lk.Unlock()
	fn()
}

type masterGain struct {
	lk sync.Mutex
	g  effects.Gain
}

func newMasterGain(sub beep.Streamer, v float64) *masterGain {
	return &masterGain{g: effects.Gain{Streamer: sub, Gain: v - 1}}
}

func (m *masterGain) Stream(samples [][2]float64) (int, bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.g.Stream(samples)
}

func (m *masterGain) Err() error {
	return m.g.Err()
}

func (m *masterGain) Set(v float64) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.g.Gain = v - 1
}

func (m *masterGain) Level() float64 {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.g.Gain + 1
}

// lockedMixer lets streamers be added while the output goroutine is pulling.
type lockedMixer struct {
	lk sync.Mutex
	m  beep.Mixer
}

func (l *lockedMixer) Add(s ...beep.Streamer) {
	l.lk.Lock()
	defer l.lk.Unlock()
	l.m.Add(s...)
}

func (l *lockedMixer) Len() int {
	l.lk.Lock()
	defer l.lk.Unlock()
	return l.m.Len()
}

func (l *lockedMixer) Stream(samples [][2]float64) (int, bool) {
	l.lk.Lock()
	defer l.lk.Unlock()
	return l.m.Stream(samples)
}

func (l *lockedMixer) Err() error {
	return nil
}

// clampUnit maps v into [0, 1]; NaN becomes 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
