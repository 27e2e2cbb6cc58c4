package sampler

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/drumkit/internal/logger"
)

const testRate = beep.SampleRate(44100)

func quietLog() *logger.Logger {
	return logger.Discard()
}

// fakeOutput stands in for the speaker. The test pulls audio from the bus
// it was handed.
type fakeOutput struct {
	lk       sync.Mutex
	bus      beep.Streamer
	plays    int
	suspends int
	resumes  int
	playErr  error
	resumeEr error
}

func (o *fakeOutput) Play(s beep.Streamer) error {
	o.lk.Lock()
	defer o.lk.Unlock()
	o.plays++
	if o.playErr != nil {
		return o.playErr
	}
	o.bus = s
	return nil
}

func (o *fakeOutput) Suspend() error {
	o.lk.Lock()
	defer o.lk.Unlock()
	o.suspends++
	return nil
}

func (o *fakeOutput) Resume() error {
	o.lk.Lock()
	defer o.lk.Unlock()
	o.resumes++
	return o.resumeEr
}

func (o *fakeOutput) pull(n int) [][2]float64 {
	buf := make([][2]float64, n)
	o.bus.Stream(buf)
	return buf
}

type restart struct {
	rate, gain float64
}

// fakeResource records restarts instead of playing.
type fakeResource struct {
	lk       sync.Mutex
	restarts []restart
	owner    *Graph
	claims   int
	err      error
}

func (f *fakeResource) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (f *fakeResource) Err() error { return nil }

func (f *fakeResource) Restart(rate, gain float64) error {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.restarts = append(f.restarts, restart{rate, gain})
	return f.err
}

func (f *fakeResource) Claim(owner *Graph) (bool, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.claims++
	switch f.owner {
	case owner:
		return false, nil
	case nil:
		f.owner = owner
		return true, nil
	default:
		return false, errors.Wrap(ErrAlreadyTapped, "fake")
	}
}

func (f *fakeResource) Restarts() []restart {
	f.lk.Lock()
	defer f.lk.Unlock()
	return append([]restart(nil), f.restarts...)
}

func (f *fakeResource) Claims() int {
	f.lk.Lock()
	defer f.lk.Unlock()
	return f.claims
}

func newBuffer() *beep.Buffer {
	return beep.NewBuffer(beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2})
}

// constBuffer holds frames copies of v.
func constBuffer(v float64, frames int) *beep.Buffer {
	buf := newBuffer()
	buf.Append(beep.Take(frames, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})))
	return buf
}

// rampBuffer rises linearly from 0 towards 1 so a frame's value tells its
// position.
func rampBuffer(frames int) *beep.Buffer {
	var pos int
	buf := newBuffer()
	buf.Append(beep.Take(frames, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := float64(pos) / float64(frames)
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})))
	return buf
}

func sine(sr beep.SampleRate, freq, amp float64) beep.Streamer {
	var pos int
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amp * math.Sin(2*math.Pi*freq*float64(pos)/float64(sr))
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// eventually polls cond for up to a second. Mock timers run their callbacks
// on separate goroutines, so replay effects land shortly after Add returns.
func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// keyRecorder collects the keys a replay triggers.
type keyRecorder struct {
	lk   sync.Mutex
	keys []string
}

func (r *keyRecorder) trigger(key string) bool {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.keys = append(r.keys, key)
	return true
}

func (r *keyRecorder) Keys() []string {
	r.lk.Lock()
	defer r.lk.Unlock()
	return append([]string(nil), r.keys...)
}
