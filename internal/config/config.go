package config

import (
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config represents the main configuration
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	LogFile    string           `yaml:"log_file,omitempty"`
	Audio      AudioConfig      `yaml:"audio"`
	Visualizer VisualizerConfig `yaml:"visualizer"`
	Kit        KitConfig        `yaml:"kit"`
}

// AudioConfig selects the output backend and the live trigger controls.
type AudioConfig struct {
	Backend    string  `yaml:"backend"` // speaker, portaudio
	SampleRate int     `yaml:"sample_rate"`
	BufferMs   int     `yaml:"buffer_ms"`
	Volume     float64 `yaml:"volume"`
	Rate       float64 `yaml:"rate"`
}

type VisualizerConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	FFTSize   int     `yaml:"fft_size"`
	Bars      int     `yaml:"bars"`
	MinDB     float64 `yaml:"min_db"`
	MaxDB     float64 `yaml:"max_db"`
	Smoothing float64 `yaml:"smoothing"`
}

// KitConfig holds the pad bindings and replay timing. A negative SettleMs
// selects the default settle margin; zero is kept.
type KitConfig struct {
	PulseMs  int       `yaml:"pulse_ms"`
	SettleMs int       `yaml:"settle_ms"`
	Bindings []Binding `yaml:"bindings"`
}

// Binding ties a key token to a sample file. Keys are normalized by the
// sampler, so "a", "A" and "65" all address the same pad.
type Binding struct {
	Key  string `yaml:"key"`
	File string `yaml:"file"`
}

const (
	BackendSpeaker   = "speaker"
	BackendPortAudio = "portaudio"
)

// Playback rate limits, matching the sampler's.
const (
	minRate = 1.0 / 16
	maxRate = 16.0
)

// DefaultConfig creates a default configuration: the classic nine pad kit on
// the home row.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:    BackendSpeaker,
			SampleRate: 44100,
			BufferMs:   50,
			Volume:     0.8,
			Rate:       1,
		},
		Visualizer: VisualizerConfig{
			Width:     1000,
			Height:    600,
			FFTSize:   2048,
			Bars:      64,
			MinDB:     -100,
			MaxDB:     -30,
			Smoothing: 0.8,
		},
		Kit: KitConfig{
			PulseMs:  145,
			SettleMs: 250,
			Bindings: []Binding{
				{Key: "A", File: "sounds/clap.wav"},
				{Key: "S", File: "sounds/hihat.wav"},
				{Key: "D", File: "sounds/kick.wav"},
				{Key: "F", File: "sounds/openhat.wav"},
				{Key: "G", File: "sounds/boom.wav"},
				{Key: "H", File: "sounds/ride.wav"},
				{Key: "J", File: "sounds/snare.wav"},
				{Key: "K", File: "sounds/tom.wav"},
				{Key: "L", File: "sounds/tink.wav"},
			},
		},
	}
}

// LoadConfig loads the configuration from a file. On any failure the
// defaults are returned together with the error so callers can warn and keep
// going.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, errors.Wrap(err, "config file not found, using defaults")
	}

	parsed := DefaultConfig()
	// an explicit binding list replaces the default kit rather than merging into it
	parsed.Kit.Bindings = nil
	if err := yaml.Unmarshal(data, parsed); err != nil {
		return config, errors.Wrap(err, "error parsing config")
	}
	if len(parsed.Kit.Bindings) == 0 {
		parsed.Kit.Bindings = config.Kit.Bindings
	}

	if err := parsed.Validate(); err != nil {
		return config, err
	}

	return parsed, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "error serializing config")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// Validate clamps the live controls into range and rejects settings the kit
// cannot run with. Non-finite numbers are always rejected.
func (c *Config) Validate() error {
	if !finite(c.Audio.Volume) {
		return errors.Errorf("volume must be a finite number, got %v", c.Audio.Volume)
	}
	if !finite(c.Audio.Rate) {
		return errors.Errorf("rate must be a finite number, got %v", c.Audio.Rate)
	}
	c.Audio.Volume = math.Max(0, math.Min(1, c.Audio.Volume))
	switch {
	case c.Audio.Rate <= 0:
		c.Audio.Rate = 1
	case c.Audio.Rate < minRate:
		c.Audio.Rate = minRate
	case c.Audio.Rate > maxRate:
		c.Audio.Rate = maxRate
	}

	switch c.Audio.Backend {
	case BackendSpeaker, BackendPortAudio:
	case "":
		c.Audio.Backend = BackendSpeaker
	default:
		return errors.Errorf("unknown audio backend %q", c.Audio.Backend)
	}

	if c.Audio.SampleRate <= 0 {
		return errors.Errorf("invalid sample rate %d", c.Audio.SampleRate)
	}
	if c.Audio.BufferMs <= 0 {
		return errors.Errorf("invalid buffer size %dms", c.Audio.BufferMs)
	}
	if c.Visualizer.Bars < 1 {
		return errors.Errorf("visualizer needs at least one bar, got %d", c.Visualizer.Bars)
	}
	if c.Visualizer.FFTSize < 32 || c.Visualizer.FFTSize&(c.Visualizer.FFTSize-1) != 0 {
		return errors.Errorf("fft size must be a power of two >= 32, got %d", c.Visualizer.FFTSize)
	}
	if !finite(c.Visualizer.MinDB) || !finite(c.Visualizer.MaxDB) {
		return errors.Errorf("decibel range must be finite, got %v..%v", c.Visualizer.MinDB, c.Visualizer.MaxDB)
	}
	if c.Visualizer.MinDB >= c.Visualizer.MaxDB {
		return errors.Errorf("min_db (%v) must be below max_db (%v)", c.Visualizer.MinDB, c.Visualizer.MaxDB)
	}
	if !(c.Visualizer.Smoothing >= 0 && c.Visualizer.Smoothing < 1) {
		return errors.Errorf("smoothing must be in [0, 1), got %v", c.Visualizer.Smoothing)
	}
	if c.Kit.PulseMs < 0 {
		return errors.Errorf("invalid pulse %dms", c.Kit.PulseMs)
	}
	if len(c.Kit.Bindings) == 0 {
		return errors.New("no key bindings configured")
	}

	return nil
}

func (c *Config) BufferDuration() time.Duration {
	return time.Duration(c.Audio.BufferMs) * time.Millisecond
}

func (c *Config) PulseDuration() time.Duration {
	return time.Duration(c.Kit.PulseMs) * time.Millisecond
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SettleMargin is negative when the file asks for the default.
func (c *Config) SettleMargin() time.Duration {
	return time.Duration(c.Kit.SettleMs) * time.Millisecond
}
