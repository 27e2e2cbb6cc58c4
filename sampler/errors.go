package sampler

import "github.com/pkg/errors"

var (
	// ErrAlreadyTapped is returned when a sample's stream has already been
	// routed into a different graph. A sample can only be tapped once.
	ErrAlreadyTapped = errors.New("sample already tapped by another graph")

	// ErrPlaybackBlocked marks failures caused by the output environment
	// (device unavailable, suspended, refused to start) rather than by the
	// kit itself.
	ErrPlaybackBlocked = errors.New("playback blocked by audio output")

	ErrUnsupportedFormat = errors.New("unsupported sample format")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrBadArgument       = errors.New("bad argument")
)

// Blocked reports whether err is an environmental playback failure.
func Blocked(err error) bool {
	return errors.Is(err, ErrPlaybackBlocked)
}
