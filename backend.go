package main

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/drumkit/internal/config"
	"github.com/whyrusleeping/drumkit/sampler"
)

// output is an audio sink the kit can play into and that main can shut down.
type output interface {
	sampler.Output
	Close() error
}

func newOutput(cfg *config.Config) (output, error) {
	sr := beep.SampleRate(cfg.Audio.SampleRate)
	switch cfg.Audio.Backend {
	case config.BackendSpeaker:
		return &speakerOutput{sr: sr, buffer: cfg.BufferDuration()}, nil
	case config.BackendPortAudio:
		return &portaudioOutput{sr: sr, frames: sr.N(cfg.BufferDuration())}, nil
	default:
		return nil, errors.Errorf("unknown audio backend %q", cfg.Audio.Backend)
	}
}

// speakerOutput plays through beep's speaker. The device is opened lazily on
// the first Play, which the graph only calls from a trigger.
type speakerOutput struct {
	sr     beep.SampleRate
	buffer time.Duration

	lk     sync.Mutex
	inited bool
}

func (o *speakerOutput) Play(s beep.Streamer) error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if !o.inited {
		if err := speaker.Init(o.sr, o.sr.N(o.buffer)); err != nil {
			return errors.Wrap(err, "initializing speaker")
		}
		o.inited = true
	}
	speaker.Play(s)
	return nil
}

func (o *speakerOutput) Suspend() error {
	return speaker.Suspend()
}

func (o *speakerOutput) Resume() error {
	return speaker.Resume()
}

func (o *speakerOutput) Close() error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.inited {
		speaker.Close()
		o.inited = false
	}
	return nil
}

// portaudioOutput pulls the graph from a PortAudio callback.
type portaudioOutput struct {
	sr     beep.SampleRate
	frames int

	lk     sync.Mutex
	stream *portaudio.Stream
	src    beep.Streamer
	buf    [][2]float64
}

func (o *portaudioOutput) Play(s beep.Streamer) error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.stream != nil {
		o.src = s
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "initializing portaudio")
	}

	o.src = s
	o.buf = make([][2]float64, o.frames)
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(o.sr), o.frames, o.callback)
	if err != nil {
		portaudio.Terminate()
		return errors.Wrap(err, "opening portaudio stream")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return errors.Wrap(err, "starting portaudio stream")
	}

	o.stream = stream
	return nil
}

func (o *portaudioOutput) callback(out []float32) {
	frames := len(out) / 2
	if len(o.buf) < frames {
		o.buf = make([][2]float64, frames)
	}
	buf := o.buf[:frames]

	n, _ := o.src.Stream(buf)
	for i := 0; i < frames; i++ {
		if i >= n {
			out[2*i], out[2*i+1] = 0, 0
			continue
		}
		out[2*i] = float32(buf[i][0])
		out[2*i+1] = float32(buf[i][1])
	}
}

func (o *portaudioOutput) Suspend() error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.stream == nil {
		return nil
	}
	return errors.Wrap(o.stream.Stop(), "stopping portaudio stream")
}

func (o *portaudioOutput) Resume() error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.stream == nil {
		return nil
	}
	return errors.Wrap(o.stream.Start(), "starting portaudio stream")
}

func (o *portaudioOutput) Close() error {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.stream == nil {
		return nil
	}
	err := o.stream.Close()
	o.stream = nil
	portaudio.Terminate()
	return errors.Wrap(err, "closing portaudio stream")
}
