package sampler

import (
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"
)

// voicer is a resource that can render extra playbacks of itself offline.
type voicer interface {
	Voice(rate, gain float64) beep.Streamer
	Duration() time.Duration
}

// Export renders the recorded sequence into a 16-bit stereo WAV stream, using
// the current volume and rate the same way a live replay would. Keys that
// are no longer bound, or whose resource cannot render offline, are left
// out. It returns the length of the rendered audio.
func (k *Kit) Export(w io.WriteSeeker) (time.Duration, error) {
	events := k.Session.Events()
	if len(events) == 0 {
		return 0, errors.Wrap(ErrBadArgument, "nothing recorded")
	}

	sr := k.rate
	vol, rate := k.Controls.Volume(), k.Controls.Rate()

	var (
		mix   beep.Mixer
		total time.Duration
	)
	for _, ev := range events {
		bd, ok := k.Bank.Lookup(ev.Key)
		if !ok {
			continue
		}
		v, ok := bd.Resource.(voicer)
		if !ok {
			k.log.Debugf("key %q cannot be exported", ev.Key)
			continue
		}

		mix.Add(beep.Seq(beep.Silence(sr.N(ev.Offset)), v.Voice(rate, vol)))
		if end := ev.Offset + time.Duration(float64(v.Duration())/rate); end > total {
			total = end
		}
	}
	if mix.Len() == 0 {
		return 0, errors.Wrap(ErrBadArgument, "no recorded key can be rendered")
	}

	master := &effects.Gain{Streamer: &mix, Gain: vol - 1}
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(w, beep.Take(sr.N(total), master), format); err != nil {
		return 0, errors.Wrap(err, "encoding wav")
	}
	return total, nil
}
