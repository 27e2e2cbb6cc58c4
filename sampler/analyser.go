package sampler

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep"
	"github.com/maddyblue/go-dsp/fft"
	"github.com/maddyblue/go-dsp/window"
)

type AnalyserConfig struct {
	FFTSize   int
	MinDB     float64
	MaxDB     float64
	Smoothing float64
}

func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:   2048,
		MinDB:     -100,
		MaxDB:     -30,
		Smoothing: 0.8,
	}
}

// Analyser passes audio through unchanged while keeping the most recent
// FFTSize frames in a ring buffer for spectrum snapshots.
type Analyser struct {
	lk       sync.Mutex
	buf      [][2]float64
	position int

	sub beep.Streamer
	cfg AnalyserConfig

	// spectrum state, only touched by FrequencyData
	flk      sync.Mutex
	frame    []float64
	smoothed []float64
}

func NewAnalyser(sub beep.Streamer, cfg AnalyserConfig) *Analyser {
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = DefaultAnalyserConfig().FFTSize
	}
	if !(cfg.MinDB < cfg.MaxDB) || math.IsInf(cfg.MinDB, 0) || math.IsInf(cfg.MaxDB, 0) {
		cfg.MinDB, cfg.MaxDB = DefaultAnalyserConfig().MinDB, DefaultAnalyserConfig().MaxDB
	}
	if !(cfg.Smoothing >= 0 && cfg.Smoothing < 1) {
		cfg.Smoothing = 0
	}

	return &Analyser{
		buf:      make([][2]float64, cfg.FFTSize),
		sub:      sub,
		cfg:      cfg,
		frame:    make([]float64, cfg.FFTSize),
		smoothed: make([]float64, cfg.FFTSize/2),
	}
}

func (a *Analyser) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.sub.Stream(samples)

	a.lk.Lock()
	defer a.lk.Unlock()

	for i := range samples[:n] {
		ix := a.position % len(a.buf)
		a.buf[ix] = samples[i]
		a.position++
	}
	return n, ok
}

func (a *Analyser) Err() error {
	return a.sub.Err()
}

func (a *Analyser) FFTSize() int {
	return a.cfg.FFTSize
}

// BinCount is the number of values FrequencyData produces.
func (a *Analyser) BinCount() int {
	return a.cfg.FFTSize / 2
}

// Snapshot copies the buffered frames, oldest first, into buf.
func (a *Analyser) Snapshot(buf [][2]float64) int {
	a.lk.Lock()
	defer a.lk.Unlock()

	lim := len(buf)
	if len(a.buf) < lim {
		lim = len(a.buf)
	}

	start := a.position + len(a.buf) - lim
	for i := 0; i < lim; i++ {
		buf[i] = a.buf[(start+i)%len(a.buf)]
	}

	return lim
}

// FrequencyData writes the current magnitude spectrum into dst as bytes,
// mapping [MinDB, MaxDB] linearly onto 0..255. It returns the number of
// values written.
func (a *Analyser) FrequencyData(dst []uint8) int {
	a.flk.Lock()
	defer a.flk.Unlock()

	a.lk.Lock()
	start := a.position
	for i := range a.frame {
		v := a.buf[(start+i)%len(a.buf)]
		a.frame[i] = (v[0] + v[1]) / 2
	}
	a.lk.Unlock()

	window.Apply(a.frame, window.Hann)
	spectrum := fft.FFTReal(a.frame)

	size := float64(len(a.frame))
	k := a.cfg.Smoothing
	for i := range a.smoothed {
		mag := cmplx.Abs(spectrum[i]) / size
		a.smoothed[i] = k*a.smoothed[i] + (1-k)*mag
	}

	n := len(dst)
	if len(a.smoothed) < n {
		n = len(a.smoothed)
	}

	span := a.cfg.MaxDB - a.cfg.MinDB
	for i := 0; i < n; i++ {
		if a.smoothed[i] <= 0 {
			dst[i] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[i])
		v := 255 * (db - a.cfg.MinDB) / span
		dst[i] = uint8(math.Max(0, math.Min(255, v)))
	}

	return n
}
