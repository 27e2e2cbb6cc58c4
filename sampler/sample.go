package sampler

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"
)

const resampleQuality = 4

// Resource is a playable sample as seen by the bank and the graph. It
// streams into whatever mixer it is routed to and streams silence while
// idle, so a mixer never drops it.
type Resource interface {
	beep.Streamer

	// Restart drops any playback in progress and starts again from the
	// first frame at the given speed and level.
	Restart(rate, gain float64) error

	// Claim routes the resource's stream into owner's analysis path. It
	// reports whether this call made the claim; a second claim by the same
	// owner is a no-op and a claim by any other owner fails with
	// ErrAlreadyTapped.
	Claim(owner *Graph) (bool, error)
}

// Sample is a decoded clip held in memory. It behaves like a single voice:
// at most one playback is in flight and restarting replaces it.
type Sample struct {
	name string
	buf  *beep.Buffer

	lk     sync.Mutex
	cur    beep.Streamer
	owner  *Graph
	starts int
}

func NewSample(name string, buf *beep.Buffer) *Sample {
	return &Sample{
		name: name,
		buf:  buf,
	}
}

func (s *Sample) Name() string {
	return s.name
}

func (s *Sample) Duration() time.Duration {
	return s.buf.Format().SampleRate.D(s.buf.Len())
}

// Voice returns a new playback of the whole clip at the given speed and
// level. It is independent of the sample's own playback. A rate that is not
// positive plays at normal speed; others are held to [MinRate, MaxRate].
func (s *Sample) Voice(rate, gain float64) beep.Streamer {
	switch {
	case math.IsNaN(rate) || rate <= 0:
		rate = 1
	case rate < MinRate:
		rate = MinRate
	case rate > MaxRate:
		rate = MaxRate
	}
	gain = clampUnit(gain)

	var st beep.Streamer = s.buf.Streamer(0, s.buf.Len())
	if rate != 1 {
		st = beep.ResampleRatio(resampleQuality, rate, st)
	}
	return &effects.Gain{Streamer: st, Gain: gain - 1}
}

func (s *Sample) Restart(rate, gain float64) error {
	st := s.Voice(rate, gain)

	s.lk.Lock()
	defer s.lk.Unlock()
	s.cur = st
	s.starts++
	return nil
}

// Playing reports whether a playback is still in flight.
func (s *Sample) Playing() bool {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.cur != nil
}

// Starts reports how many times playback has been (re)started.
func (s *Sample) Starts() int {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.starts
}

func (s *Sample) Stream(samples [][2]float64) (int, bool) {
	s.lk.Lock()
	defer s.lk.Unlock()

	var n int
	if s.cur != nil {
		var ok bool
		n, ok = s.cur.Stream(samples)
		if !ok || n < len(samples) {
			s.cur = nil
		}
	}

	for i := n; i < len(samples); i++ {
		samples[i][0] = 0
		samples[i][1] = 0
	}
	return len(samples), true
}

func (s *Sample) Err() error {
	return nil
}

func (s *Sample) Claim(owner *Graph) (bool, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	switch s.owner {
	case owner:
		return false, nil
	case nil:
		s.owner = owner
		return true, nil
	default:
		return false, errors.Wrapf(ErrAlreadyTapped, "sample %q", s.name)
	}
}

// LoadSample decodes a WAV or MP3 file fully into memory at sample rate sr.
func LoadSample(path string, sr beep.SampleRate) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sample")
	}
	defer f.Close()

	var (
		st     beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		st, format, err = wav.Decode(f)
	case ".mp3":
		st, format, err = mp3.Decode(f)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	defer st.Close()

	buf := BufferStreamer(st, format.SampleRate, sr)
	if err := st.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewSample(name, buf), nil
}

// BufferStreamer drains st into a stereo buffer at sample rate sr,
// resampling when the source rate differs.
func BufferStreamer(st beep.Streamer, from, sr beep.SampleRate) *beep.Buffer {
	if from != sr {
		st = beep.Resample(resampleQuality, from, sr, st)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})
	buf.Append(st)
	return buf
}
